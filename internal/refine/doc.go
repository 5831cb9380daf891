// Package refine implements the prompt-improvement operations built on the
// structured generation pipeline: rewriting rough prompts, scoring them,
// and classifying text formats. Each operation renders a fixed template,
// validates the model's JSON against a semantic contract, and reports
// whether the reinforced retry was needed.
package refine
