package ai

// Prompt templates for the generation chain. The clinic's audience is
// Indonesian patients, so captions and summaries are written in Bahasa
// Indonesia while prompts to the models stay in English.

const summaryPrompt = `Summarize the following dental news article for dentists audience in Bahasa Indonesia.
Title: %s
URL: %s
Return a comprehensive summary. Without flavor text, e.g. here's the summary:, or repeating the title in the summary.`

const captionPrompt = `Given this summary of a dental news article, write a highly engaging Instagram caption for a dental clinic's Indonesian patients in Bahasa Indonesia. Don't use em-dashes. Always include call to action, popular hashtags, and moderate amount of emojis. never offer anything free.
Summary: %s
`

const imagePromptPrompt = `Given this summary, write a prompt for an image generation AI to create an image for a dental clinic instagram post. The audience is potential patient of an Indonesian dental clinic. Prioritize photorealistic image of Indonesian. 2D cartoon can be added as flare or decoration. Return only the prompt, no other text.
Summary: %s
`
