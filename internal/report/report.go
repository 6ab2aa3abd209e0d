// Package report assembles the HTML fragments returned to the web page
// and delivered by email. Fragments carry inline styles because they are
// injected into third-party pages and mail clients that strip external
// stylesheets.
package report

import (
	"fmt"
	"strings"

	"github.com/katachat/insight-api/internal/lang"
	"github.com/katachat/insight-api/internal/metrics"
)

// HTML renders the summary and suggestions sections plus the localized
// footer into one fragment.
func HTML(l lang.Lang, summary, suggestions string) string {
	labels := lang.For(l)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<div style='font-size:24px; font-weight:bold; margin-top:30px;'>%s</div><br>", labels.SummaryTitle))
	for _, p := range splitParagraphs(summary) {
		b.WriteString(fmt.Sprintf("<p style='line-height:1.7; font-size:16px; margin-bottom:16px;'>%s</p>", p))
	}

	b.WriteString(fmt.Sprintf("<div style='font-size:24px; font-weight:bold; margin-top:30px;'>%s</div><br>", labels.SuggestionsTitle))
	for _, p := range splitParagraphs(suggestions) {
		b.WriteString(fmt.Sprintf("<p style='margin:16px 0; font-size:17px;'>%s</p>", p))
	}

	b.WriteString(Footer(l))
	return b.String()
}

// EmailBody prepends a plain metrics table to the report fragment, the
// layout used for the operator copy.
func EmailBody(doc metrics.Document, html string) string {
	var b strings.Builder
	for _, block := range doc {
		b.WriteString(fmt.Sprintf("<h4>%s</h4>", block.Title))
		for i, label := range block.Labels {
			if i >= len(block.Values) {
				break
			}
			b.WriteString(fmt.Sprintf("<p>%s: %d%%</p>", label, block.Values[i]))
		}
	}
	b.WriteString(html)
	return b.String()
}

// Footer returns the provenance/disclaimer block appended to every report.
func Footer(l lang.Lang) string {
	switch l {
	case lang.ZH:
		return footerBlock(
			"📊 洞察由 KataChat AI 生成",
			"本健康报告由 KataChat 专有的 AI 模型生成，基于来自新加坡、马来西亚和台湾的匿名健康与生活方式档案，以及可信的全球健康基准数据。",
			"<strong>🗒️ 注意：</strong>本报告不构成医疗诊断。如有任何严重的健康问题，请咨询持牌医疗专业人员。")
	case lang.ZHTW:
		return footerBlock(
			"📊 洞察由 KataChat AI 生成",
			"本健康報告由 KataChat 專有的 AI 模型生成，基於來自新加坡、馬來西亞和台灣的匿名健康與生活方式檔案，以及可信的全球健康基準數據。",
			"<strong>🗒️ 注意：</strong>本報告不構成醫療診斷。如有任何嚴重的健康問題，請諮詢持牌醫療專業人員。")
	default:
		return `
        <div style="margin-top: 40px; padding: 20px; background-color: #f8f9fa; border-radius: 8px; font-family: sans-serif; border-left: 6px solid #4CAF50;">
            <h4 style="font-size: 16px; font-weight: bold; margin-top: 0; margin-bottom: 15px; display: flex; align-items: center;">
                📊 Insights Generated by KataChat AI
            </h4>
            <p style="font-size: 14px; color: #333; line-height: 1.6;">
                This wellness report is generated using KataChat's proprietary AI models, based on:
            </p>
            <ul style="font-size: 14px; color: #555; padding-left: 20px; margin-top: 10px; margin-bottom: 20px; line-height: 1.6;">
                <li>A secure database of anonymized health and lifestyle profiles from individuals across Singapore, Malaysia, and Taiwan</li>
                <li>Aggregated global wellness benchmarks and behavioral trend data from trusted OpenAI research datasets</li>
            </ul>
            <p style="font-size: 14px; color: #333; line-height: 1.6;">
                All analysis complies strictly with PDPA regulations to protect your personal data while uncovering meaningful health insights.
            </p>
            <p style="font-size: 14px; color: #333; line-height: 1.6; margin-top: 20px;">
                <strong>🗒️ Note:</strong> This report is not a medical diagnosis. For any serious health concerns, please consult a licensed healthcare professional.
            </p>
            <p style="font-size: 14px; color: #333; line-height: 1.6; margin-top: 20px;">
                <strong>PS:</strong> A personalized report will also be sent to your email and should arrive within 24–48 hours. If you'd like to explore the findings in more detail, we'd be happy to arrange a short 15-minute call.
            </p>
        </div>
        `
	}
}

func footerBlock(title, body, note string) string {
	return fmt.Sprintf(`
        <div style="margin-top: 40px; padding: 20px; background-color: #f8f9fa; border-radius: 8px; font-family: sans-serif; border-left: 6px solid #4CAF50;">
            <h4 style="font-size: 16px; font-weight: bold; margin-top: 0; margin-bottom: 15px;">%s</h4>
            <p style="font-size: 14px; color: #333; line-height: 1.6;">%s</p>
            <p style="font-size: 14px; color: #333; line-height: 1.6; margin-top: 20px;">%s</p>
        </div>
        `, title, body, note)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
