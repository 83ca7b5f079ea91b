package ai

import "strings"

// emptyTranscriptNotice is saved verbatim when no transcript could be
// obtained for a video.
const emptyTranscriptNotice = "⚠️ 无法获取字幕，无法生成总结"

const summarizePrompt = `你是一个专业的视频内容分析师。请根据以下视频字幕，生成一份**全面、精细且有条理**的视频笔记。

视频标题: {title}

字幕内容:
{subtitle}

请用中文输出，严格按照以下格式：

## 内容整理

将作者的原始表述进行整理和精简，去除口语化的重复、语气词和冗余表达，但**不能遗漏任何实质内容**。用更清晰流畅的书面语重新组织，保留作者的原意、论证逻辑和关键用词。按话题分段呈现。

## 核心观点

全面覆盖作者在视频中表达的所有重要观点，不要人为限制数量。每个观点下面：
- 先用一句话精准概括该观点
- 然后列出作者用来支撑该观点的**具体例子、故事、数据或类比**（如果有的话）

注意：观点数量应由内容决定，确保不遗漏任何重要论点。短视频可能只有 2-3 个观点，长视频可能有 10 个以上。

## 行动建议

如果视频包含可操作的建议或方法论，请列出具体的行动步骤。如果视频偏向于分享观点/故事而非方法论，可以省略此部分。`

// renderPrompt substitutes the title and the (length-capped) transcript
// into the summary prompt.
func renderPrompt(title, transcript string, maxChars int) string {
	prompt := strings.ReplaceAll(summarizePrompt, "{title}", title)
	return strings.ReplaceAll(prompt, "{subtitle}", truncateRunes(transcript, maxChars))
}

// truncateRunes caps a string at maxChars characters, not bytes, so CJK
// transcripts are not cut mid-rune.
func truncateRunes(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
