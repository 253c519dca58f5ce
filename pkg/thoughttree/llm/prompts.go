package llm

// System prompts for the generator and evaluator roles.

const generatorPrompt = `You are an expert problem-solver exploring a tree of reasoning branches. ` +
	`Given a problem, generate diverse, distinct reasoning branches to explore. ` +
	`Each branch should represent a meaningfully different approach. Be concrete and specific. ` +
	`Respond with JSON: {"thoughts": ["...", "..."]}`

const expanderPrompt = `You are continuing a chain of reasoning. ` +
	`Given the problem and the reasoning so far, produce the next concrete reasoning steps. ` +
	`Be specific, build directly on the previous thought, and aim toward a solution. ` +
	`Respond with JSON: {"thoughts": ["...", "..."]}`

const evaluatorPrompt = `You are a critical evaluator assessing reasoning branches. ` +
	`Score how promising a thought is for solving the problem (0.0 = dead end or wrong, ` +
	`1.0 = excellent or correct). If the thought fully and correctly answers the problem, ` +
	`set is_terminal to true and provide the final answer. ` +
	`Respond with JSON: {"score": 0.0, "is_terminal": false, "answer": "...", "rationale": "..."}`
