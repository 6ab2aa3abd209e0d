// Package lang holds the per-language string tables shared by the prompt
// composer, the report renderer and the HTTP layer.
package lang

import (
	"strings"

	"github.com/katachat/insight-api/internal/metrics"
)

type Lang string

const (
	EN   Lang = "en"
	ZH   Lang = "zh"
	ZHTW Lang = "zh-tw"
)

// Normalize maps a client-supplied code onto a supported language.
// Unknown codes fall back to English rather than erroring.
func Normalize(code string) Lang {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "zh", "zh-cn", "zh-hans":
		return ZH
	case "zh-tw", "zh-hant", "zh-hk":
		return ZHTW
	default:
		return EN
	}
}

// Labels are the rendered-output strings for one language.
type Labels struct {
	SummaryTitle     string
	SuggestionsTitle string
	EmailSubject     string
	ReportTitle      string
	Footer           string

	// GenWarning replaces the generator's reply when the upstream call
	// fails; it must contain no category markers so extraction takes
	// the fallback path.
	GenWarning  string
	ErrInternal string
	ErrMissing  string
}

var tables = map[Lang]Labels{
	EN: {
		SummaryTitle:     "🧠 Summary:",
		SuggestionsTitle: "💡 Creative Suggestions:",
		EmailSubject:     "Your Health Insight Report",
		ReportTitle:      "🎉 Global Health Insight Report",
		Footer:           "📩 This report has also been sent to your email. All content is generated by KataChat AI in compliance with PDPA regulations.",
		GenWarning:       "⚠️ AI response generation failed due to a server error. Please try again later.",
		ErrInternal:      "An internal server error occurred. Please try again later.",
		ErrMissing:       "Missing required fields: %s",
	},
	ZH: {
		SummaryTitle:     "🧠 健康总结：",
		SuggestionsTitle: "💡 生活建议：",
		EmailSubject:     "您的健康洞察报告",
		ReportTitle:      "🎉 全球健康洞察报告",
		Footer:           "📩 此报告已通过电子邮件发送给您。所有内容均由 KataChat AI 生成，并符合个人信息保护法规定。",
		GenWarning:       "⚠️ 无法生成回应，请稍后再试。",
		ErrInternal:      "服务器内部错误，请稍后再试。",
		ErrMissing:       "缺少必填字段：%s",
	},
	ZHTW: {
		SummaryTitle:     "🧠 健康總結：",
		SuggestionsTitle: "💡 生活建議：",
		EmailSubject:     "您的健康洞察報告",
		ReportTitle:      "🎉 全球健康洞察報告",
		Footer:           "📩 此報告已透過電子郵件發送給您。所有內容均由 KataChat AI 生成，並符合個人資料保護法規定。",
		GenWarning:       "⚠️ 無法生成回應，請稍後再試。",
		ErrInternal:      "伺服器內部錯誤，請稍後再試。",
		ErrMissing:       "缺少必填欄位：%s",
	},
}

// For returns the label table for l, defaulting to English.
func For(l Lang) Labels {
	if t, ok := tables[l]; ok {
		return t
	}
	return tables[EN]
}

// Fallback returns the placeholder metrics document for l.
func (l Lang) Fallback() metrics.Document {
	switch l {
	case ZH:
		return metrics.FallbackZH
	case ZHTW:
		return metrics.FallbackZHTW
	default:
		return metrics.FallbackEN
	}
}
