package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/metrics"
	"github.com/Aashish23092/travel-document-verification/pkg/logger"
	"github.com/Aashish23092/travel-document-verification/utils"
	"github.com/Aashish23092/travel-document-verification/utils/mrz"
)

// Options bound the work of one evaluation
type Options struct {
	// DocumentTimeout bounds the acquisition of a single document
	DocumentTimeout time.Duration
	// RequestBudget bounds the whole evaluation
	RequestBudget time.Duration
	// MaxConcurrent caps how many documents are acquired at once
	MaxConcurrent int
}

func DefaultOptions() Options {
	return Options{
		DocumentTimeout: 10 * time.Second,
		RequestBudget:   30 * time.Second,
		MaxConcurrent:   4,
	}
}

type VerificationService struct {
	opts    Options
	metrics *metrics.Metrics
	rules   []Rule
	now     func() time.Time
}

func NewVerificationService(opts Options, m *metrics.Metrics) *VerificationService {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultOptions().MaxConcurrent
	}
	return &VerificationService{
		opts:    opts,
		metrics: m,
		rules:   Rules,
		now:     time.Now,
	}
}

// documentResult is everything extracted from one document
type documentResult struct {
	summary dto.DocumentSummary
	text    []string
	mrz     *dto.MrzBlock
	barcode *dto.BarcodeResult
	ocr     map[string]dto.ExtractedField
}

// EvaluateDocuments evaluates documents whose text was recognised upstream
func (s *VerificationService) EvaluateDocuments(ctx context.Context, docs []dto.RawDocument, applicant dto.ApplicantProfile, policy *dto.EligibilityPolicy) *dto.VerificationResponse {
	return s.Evaluate(ctx, StaticSources(docs), applicant, policy)
}

// Evaluate acquires every document, reconciles the extracted fields, runs
// the validation rules and derives the decision. It always returns a
// response: documents that time out or fail contribute nothing and checks
// that could not run inside the request budget are reported as unknown.
// A nil policy means the default policy.
func (s *VerificationService) Evaluate(ctx context.Context, sources []DocumentSource, applicant dto.ApplicantProfile, policy *dto.EligibilityPolicy) *dto.VerificationResponse {
	start := time.Now()
	defer func() { s.metrics.ObserveEvaluateLatency(time.Since(start)) }()

	if s.opts.RequestBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestBudget)
		defer cancel()
	}

	p := dto.DefaultEligibilityPolicy()
	if policy != nil {
		p = *policy
	}

	results := s.acquireAll(ctx, sources)
	merged := mergeResults(results)
	fields := Reconcile(SourceCandidates{Mrz: merged.mrz, Barcode: merged.barcode, OCR: merged.ocr})

	checks := []dto.ValidationCheck{}
	if merged.mrz.Found() || anyPresent(fields) {
		checks = RunChecks(ctx, s.rules, RuleInput{
			Fields:     fields,
			Mrz:        merged.mrz,
			Applicant:  applicant,
			Policy:     p,
			TravelDate: s.travelDate(applicant),
		})
	}
	decision := Decide(checks)

	resp := &dto.VerificationResponse{
		Fields:             fields,
		Barcode:            merged.barcode,
		Checks:             checks,
		Decision:           decision,
		RecommendedActions: RecommendedActions(checks),
		Documents:          merged.summaries,
		RawText:            strings.Join(merged.text, "\n\n"),
	}
	if merged.hasText {
		resp.Mrz = merged.mrz
	}
	resp.TimingMs = time.Since(start).Milliseconds()

	s.record(resp)
	logger.Info(ctx, "travel document evaluated",
		"documents", len(sources),
		"mrz_format", string(merged.mrz.Format),
		"decision", string(decision.Status),
		"confidence", decision.Confidence,
		"timing_ms", resp.TimingMs,
	)
	return resp
}

// acquireAll acquires and extracts every document concurrently. Each
// goroutine writes only its own slot of the result slice.
func (s *VerificationService) acquireAll(ctx context.Context, sources []DocumentSource) []documentResult {
	results := make([]documentResult, len(sources))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrent)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = s.processDocument(ctx, i, src)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

type acquired struct {
	doc dto.RawDocument
	err error
}

func (s *VerificationService) processDocument(ctx context.Context, index int, src DocumentSource) documentResult {
	res := documentResult{
		summary: dto.DocumentSummary{Index: index, Status: dto.DocumentOK, MrzFormat: dto.MrzUnknown},
	}
	if ctx.Err() != nil {
		res.summary.Status = dto.DocumentTimeout
		res.summary.Error = "evaluation budget exceeded before acquisition"
		return res
	}

	docCtx := ctx
	if s.opts.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		docCtx, cancel = context.WithTimeout(ctx, s.opts.DocumentTimeout)
		defer cancel()
	}

	done := make(chan acquired, 1)
	go func() {
		doc, err := src.Acquire(docCtx)
		done <- acquired{doc, err}
	}()

	var doc dto.RawDocument
	select {
	case a := <-done:
		if a.err != nil {
			res.summary.Status = dto.DocumentError
			if docCtx.Err() != nil {
				res.summary.Status = dto.DocumentTimeout
			}
			res.summary.Error = a.err.Error()
			logger.Warn(ctx, "document acquisition failed", "index", index, "status", string(res.summary.Status), "error", a.err)
			return res
		}
		doc = a.doc
	case <-docCtx.Done():
		res.summary.Status = dto.DocumentTimeout
		res.summary.Error = docCtx.Err().Error()
		logger.Warn(ctx, "document acquisition timed out", "index", index)
		return res
	}

	res.text = nonEmpty(doc.OCRText)
	if len(res.text) == 0 && strings.TrimSpace(doc.DecodedBarcodeText) == "" {
		res.summary.Status = dto.DocumentEmpty
		logger.Debug(ctx, "document has no text", "index", index)
		return res
	}

	res.mrz = mrz.Locate(res.text)
	res.summary.MrzFormat = res.mrz.Format
	res.ocr = utils.ExtractFreeTextFields(res.text, doc.OCRTokenConfidences)
	res.barcode = utils.ParseBarcodeFields(doc.DecodedBarcodeText)
	logger.Debug(ctx, "document acquired",
		"index", index,
		"lines", len(res.text),
		"mrz_format", string(res.mrz.Format),
		"ocr_fields", len(res.ocr),
	)
	return res
}

type mergedResults struct {
	mrz       *dto.MrzBlock
	barcode   *dto.BarcodeResult
	ocr       map[string]dto.ExtractedField
	summaries []dto.DocumentSummary
	text      []string
	hasText   bool
}

// mergeResults is the single collection point of the per-document results.
// The best MRZ wins (earliest on ties), the first barcode with fields wins
// and every OCR field keeps its most confident candidate (earliest on ties).
func mergeResults(results []documentResult) mergedResults {
	m := mergedResults{
		mrz:       mrz.Unknown(),
		ocr:       map[string]dto.ExtractedField{},
		summaries: make([]dto.DocumentSummary, 0, len(results)),
		text:      []string{},
	}
	for _, r := range results {
		m.summaries = append(m.summaries, r.summary)
		if len(r.text) > 0 {
			m.hasText = true
			m.text = append(m.text, strings.Join(r.text, "\n"))
		}
		if r.mrz != nil && mrz.Better(r.mrz, m.mrz) {
			m.mrz = r.mrz
		}
		if r.barcode != nil && (m.barcode == nil || (len(m.barcode.Fields) == 0 && len(r.barcode.Fields) > 0)) {
			m.barcode = r.barcode
		}
		for id, f := range r.ocr {
			if prev, ok := m.ocr[id]; !ok || f.Confidence > prev.Confidence {
				m.ocr[id] = f
			}
		}
	}
	return m
}

// travelDate is the declared travel date, or today when none is declared
func (s *VerificationService) travelDate(applicant dto.ApplicantProfile) time.Time {
	if strings.TrimSpace(applicant.IntendedTravelDate) != "" {
		if t, err := utils.ParseDate(applicant.IntendedTravelDate); err == nil {
			return t
		}
	}
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *VerificationService) record(resp *dto.VerificationResponse) {
	if resp.Mrz.Found() {
		s.metrics.IncrementMrzBlock(string(resp.Mrz.Format), resp.Mrz.ChecksumValid)
	}
	for _, c := range resp.Checks {
		s.metrics.IncrementCheck(c.ID, string(c.Status))
	}
	s.metrics.IncrementDecision(string(resp.Decision.Status))
}

func anyPresent(fields map[string]dto.ExtractedField) bool {
	for _, f := range fields {
		if f.Present() {
			return true
		}
	}
	return false
}

func nonEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
