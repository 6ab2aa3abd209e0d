// Package analyze runs the full report pipeline: profile → chart prompt →
// text generator → metrics extraction → narrative + suggestions → HTML,
// with best-effort email delivery and audit logging on the side.
package analyze

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katachat/insight-api/internal/audit"
	"github.com/katachat/insight-api/internal/lang"
	"github.com/katachat/insight-api/internal/llm"
	"github.com/katachat/insight-api/internal/mail"
	"github.com/katachat/insight-api/internal/metrics"
	"github.com/katachat/insight-api/internal/prompt"
	"github.com/katachat/insight-api/internal/report"
)

// Sampling temperatures per call, carried over from the upstream service.
const (
	chartTemp       = 0.75
	summaryTemp     = 0.75
	suggestionsTemp = 0.85
)

type Request struct {
	Lang    lang.Lang
	Profile prompt.Profile
}

type Result struct {
	Metrics     metrics.Document `json:"metrics"`
	HTML        string           `json:"html_result"`
	Footer      string           `json:"footer"`
	ReportTitle string           `json:"report_title"`
}

// Service wires the pipeline's collaborators. Mailer and Audit may be
// nil, which disables the corresponding side effect.
type Service struct {
	Gen    llm.Generator
	Mailer mail.Sender
	Audit  audit.Store
	Log    *zap.Logger

	// BlankLineClosesCategory is forwarded to the extractor.
	BlankLineClosesCategory bool
}

// Analyze never returns an error: every upstream failure degrades to the
// localized warning sentence or the fallback metrics document, so the
// caller always has a renderable result.
func (s *Service) Analyze(ctx context.Context, req Request) Result {
	labels := lang.For(req.Lang)
	req.Profile.Notes = prompt.SanitizeNotes(req.Profile.Notes)

	raw := s.completeOrWarn(ctx, prompt.Chart(req.Lang, req.Profile), chartTemp, labels)
	doc := metrics.Extract(raw, metrics.Options{
		BlankLineClosesCategory: s.BlankLineClosesCategory,
		Fallback:                req.Lang.Fallback(),
	})

	// The summary prompt embeds the extracted metrics, so it has to wait
	// for the chart call; summary and suggestions are independent of
	// each other and run concurrently.
	var summary, suggestions string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = s.completeOrWarn(gctx, prompt.Summary(req.Lang, req.Profile, doc), summaryTemp, labels)
		return nil
	})
	g.Go(func() error {
		suggestions = s.completeOrWarn(gctx, prompt.Suggestions(req.Lang, req.Profile), suggestionsTemp, labels)
		return nil
	})
	_ = g.Wait()

	html := report.HTML(req.Lang, summary, suggestions)

	s.deliver(labels, doc, html)
	s.record(ctx, req, doc)

	return Result{
		Metrics:     doc,
		HTML:        html,
		Footer:      labels.Footer,
		ReportTitle: labels.ReportTitle,
	}
}

// completeOrWarn substitutes the localized warning sentence for any
// generator failure; the raw error stays in the logs only.
func (s *Service) completeOrWarn(ctx context.Context, p string, temp float32, labels lang.Labels) string {
	text, err := s.Gen.Complete(ctx, p, temp)
	if err != nil {
		s.Log.Warn("text generation failed", zap.Error(err))
		return labels.GenWarning
	}
	return text
}

func (s *Service) deliver(labels lang.Labels, doc metrics.Document, html string) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(labels.EmailSubject, report.EmailBody(doc, html)); err != nil {
		s.Log.Warn("report email delivery failed", zap.Error(err))
		return
	}
	s.Log.Info("report email sent", zap.String("subject", labels.EmailSubject))
}

func (s *Service) record(ctx context.Context, req Request, doc metrics.Document) {
	if s.Audit == nil {
		return
	}
	entry := audit.Entry{
		Lang:      string(req.Lang),
		Country:   req.Profile.Country,
		Condition: req.Profile.Concern,
		Age:       req.Profile.Age,
		Blocks:    len(doc),
	}
	if _, err := s.Audit.Insert(ctx, entry); err != nil {
		s.Log.Warn("audit insert failed", zap.Error(err))
	}
}
