package refine

// Prompt templates for the structured operations. Each one pins the exact
// response shape so the recovery pipeline has a stable contract to validate
// against, and fences the user text between delimiters so instructions in
// the input cannot masquerade as ours.

const refineTemplate = `You are an expert prompt engineer. Rewrite the rough prompt below into a clear, specific, well-structured prompt that preserves the author's intent.

Respond with a JSON object shaped exactly like:
{"refined": "the rewritten prompt", "notes": ["one short note per meaningful change"]}

Rough prompt:
---
%s
---`

const scoreTemplate = `You are an expert prompt reviewer. Score the prompt below on three axes, each 0-100: clarity (is the ask unambiguous), specificity (are constraints and context stated), completeness (could it be answered without follow-up questions).

Respond with a JSON object shaped exactly like:
{"total": 0, "axes": {"clarity": 0, "specificity": 0, "completeness": 0}, "advice": ["one short suggestion per weakness"]}

The total must be the rounded average of the three axes.

Prompt:
---
%s
---`

const classifyTemplate = `Classify the dominant format of the text below as exactly one of: json, markdown, code, prose.

Respond with a JSON object shaped exactly like:
{"format": "prose", "confidence": 0.0}

Confidence is your certainty between 0 and 1.

Text:
---
%s
---`
