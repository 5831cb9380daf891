package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"whetstone/internal/config"
	"whetstone/internal/providers"
)

// CheckDirectoryAccess verifies that the directory exists and is readable,
// writable, and traversable. The daemon needs all three on its log directory
// for the log, socket, lock, and pid files.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckProvider verifies the configured provider name is one whetstone knows
// how to talk to.
func CheckProvider(cfg *config.Config) Result {
	const name = "Provider"
	provider := strings.TrimSpace(cfg.LLM.Provider)
	if provider == "" {
		return Result{Name: name, Detail: "not configured (set llm.provider)"}
	}
	if !providers.Known(provider) {
		return Result{Name: name, Detail: fmt.Sprintf("unknown provider %q (expected one of %s)",
			provider, strings.Join(providers.Names(), ", "))}
	}
	return Result{Name: name, Passed: true, Detail: provider}
}

// CheckCredential verifies a credential is resolvable for the configured
// provider, from either the config file or the provider's environment
// variable. It never validates the key against the provider; that happens
// on the first real request.
func CheckCredential(cfg *config.Config) Result {
	const name = "Credential"
	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		return Result{Name: name, Passed: true, Detail: "configured in config file"}
	}
	envVar := providers.CredentialEnvVar(strings.TrimSpace(cfg.LLM.Provider))
	if envVar == "" {
		return Result{Name: name, Detail: "no api_key configured"}
	}
	if strings.TrimSpace(os.Getenv(envVar)) != "" {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("from %s", envVar)}
	}
	return Result{Name: name, Detail: fmt.Sprintf("missing (set llm.api_key or %s)", envVar)}
}
