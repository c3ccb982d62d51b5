package catalog

import (
	"context"
	"slices"
	"strings"
)

// Lister 定义模型目录接口
type Lister interface {
	ListModels(ctx context.Context) ([]Model, error)
}

// Model 目录中的单个模型
type Model struct {
	Name string
	// Methods 模型支持的调用方式，为空表示来源未提供能力信息
	Methods []string
}

// 不具备文本对话能力的模型名称关键字。
// Gemini 的 TTS 和图像生成变体同样声明 generateContent，只能按名称排除。
var nonChatMarkers = []string{"embedding", "whisper", "tts", "dall-e", "moderation", "transcribe", "image", "audio"}

// IsNonChat 按名称判断模型是否只产出非文本内容
func IsNonChat(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range nonChatMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// CanGenerate 判断模型是否能生成文本简报
func (m Model) CanGenerate() bool {
	if IsNonChat(m.Name) {
		return false
	}
	if len(m.Methods) == 0 {
		return true
	}
	return slices.Contains(m.Methods, "generateContent")
}

// Rank 过滤出可生成内容的模型，并按 preference 的顺序排列。
// preference 中的每一项按前缀匹配，未匹配任何偏好的模型被丢弃。
func Rank(models []Model, preference []string) []string {
	var ranked []string
	for _, pref := range preference {
		var matched []string
		for _, m := range models {
			if !m.CanGenerate() || !strings.HasPrefix(m.Name, pref) {
				continue
			}
			if slices.Contains(ranked, m.Name) || slices.Contains(matched, m.Name) {
				continue
			}
			matched = append(matched, m.Name)
		}
		// 同一偏好下优先精确匹配，其余按名称排序保证结果稳定
		slices.SortFunc(matched, func(a, b string) int {
			if a == pref {
				return -1
			}
			if b == pref {
				return 1
			}
			return strings.Compare(a, b)
		})
		ranked = append(ranked, matched...)
	}
	return ranked
}

// Candidates 合并目录排序结果和固定的备选列表，去重后返回
func Candidates(ranked, fallback []string) []string {
	out := make([]string, 0, len(ranked)+len(fallback))
	for _, name := range slices.Concat(ranked, fallback) {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
