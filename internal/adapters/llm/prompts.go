package llm

// Fixed system prompts for the five text-pipeline operations. The pipeline
// treats the model as a black box: text in, text/boolean/JSON out.

const normalizePrompt = `You are a financial news editor. Rewrite the given news text in a neutral,
factual editorial style. Remove urgency markers, ALL CAPS, emotional verbs and dramatic
metaphors. Keep every fact: numbers, names, dates, percentages. Reply with the rewritten
text only, no commentary.`

const taggerPrompt = `You classify financial news by industry sector. Choose the sectors the news
belongs to from this list, most relevant first:
Информационные технологии, Металлы и добыча, Нефть и газ, Потребительский сектор,
Строительные компании, Телекоммуникации, Транспорт, Финансы, Электроэнергетика,
Химия и нефтехимия.
Reply with a comma-separated list of sector names only. Reply with an empty line if none apply.`

const impactPrompt = `You assess the likely market impact of a financial news text.
Output JSON only, no other text:
{
  "impact_level": "low" | "medium" | "high",
  "affected_sectors": ["sector name", ...]
}`

const comparePrompt = `You are given two news texts. Decide whether they report the same underlying
event (the same fact about the same actors, possibly with different wording or details).
Reply with exactly one word: true or false.`

const mergePrompt = `You maintain a running summary of a news event. Fold the new information into
the existing summary: keep all established facts, add what is genuinely new, resolve
contradictions in favor of the newer text. Reply with the updated summary only.`
