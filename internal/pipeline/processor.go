package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/dgallion1/cvparse/internal/extract"
	"github.com/dgallion1/cvparse/internal/fetch"
	"github.com/dgallion1/cvparse/internal/followup"
	"github.com/dgallion1/cvparse/internal/notify"
	"github.com/dgallion1/cvparse/internal/parser"
	"github.com/google/uuid"
)

// ErrInvalidInput marks failures caused by the submission itself rather
// than by a downstream service.
var ErrInvalidInput = errors.New("invalid input")

type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type Sink interface {
	Append(ctx context.Context, rec extract.Record) error
}

type Webhook interface {
	Send(ctx context.Context, p notify.Payload) error
}

type FollowUpScheduler interface {
	Schedule(to, name string, at time.Time) followup.TaskSnapshot
}

// Submission is one request to process a résumé.
type Submission struct {
	DocumentURL    string
	Status         string
	ApplicantName  string
	ApplicantEmail string
}

// Result is what a successful submission produced.
type Result struct {
	SubmissionID string
	Record       extract.Record
	FollowUp     *followup.TaskSnapshot
}

// Candidate is the configured webhook metadata. Empty fields fall back to
// the submission's applicant details.
type Candidate struct {
	Name          string
	Email         string
	DefaultStatus string
}

type Options struct {
	Parsers      parser.Registry
	Extractor    *extract.Extractor
	Fetcher      Fetcher
	Sink         Sink
	Webhook      Webhook
	FollowUps    FollowUpScheduler
	Candidate    Candidate
	FollowUpHour int
}

// Processor runs the résumé pipeline. It holds no per-request state and
// is safe for concurrent use.
type Processor struct {
	parsers      parser.Registry
	extractor    *extract.Extractor
	fetcher      Fetcher
	sink         Sink
	webhook      Webhook
	followUps    FollowUpScheduler
	candidate    Candidate
	followUpHour int
	stats        *StageStats
	log          *slog.Logger
	now          func() time.Time
}

func NewProcessor(opts Options, log *slog.Logger) *Processor {
	ex := opts.Extractor
	if ex == nil {
		ex = extract.New(extract.BoundaryHeading)
	}
	return &Processor{
		parsers:      opts.Parsers,
		extractor:    ex,
		fetcher:      opts.Fetcher,
		sink:         opts.Sink,
		webhook:      opts.Webhook,
		followUps:    opts.FollowUps,
		candidate:    opts.Candidate,
		followUpHour: opts.FollowUpHour,
		stats:        NewStageStats(time.Hour, StageFetch, StageParse, StageSink, StageWebhook),
		log:          log.With("component", "pipeline"),
		now:          time.Now,
	}
}

// Stats returns latency snapshots per stage.
func (p *Processor) Stats() map[string]StatsSnapshot {
	return p.stats.Snapshot()
}

// Process fetches, parses and extracts the document, then stores the
// record, posts the webhook and schedules the follow-up email. Nothing
// is retried. Errors wrapping ErrInvalidInput are the caller's fault.
func (p *Processor) Process(ctx context.Context, sub Submission) (Result, error) {
	if sub.DocumentURL == "" {
		return Result{}, fmt.Errorf("%w: missing documentUrl", ErrInvalidInput)
	}
	if sub.ApplicantEmail != "" {
		addr, err := mail.ParseAddress(sub.ApplicantEmail)
		if err != nil {
			return Result{}, fmt.Errorf("%w: applicantEmail: %w", ErrInvalidInput, err)
		}
		sub.ApplicantEmail = addr.Address
	}

	id := uuid.NewString()
	log := p.log.With("submission_id", id, "document_url", sub.DocumentURL)

	start := time.Now()
	data, err := p.fetcher.Fetch(ctx, sub.DocumentURL)
	p.stats.Record(StageFetch, time.Since(start))
	if err != nil {
		if errors.Is(err, fetch.ErrUnsupportedScheme) {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		log.Error("fetch failed", "error", err)
		return Result{}, fmt.Errorf("fetch document: %w", err)
	}

	ps, err := p.parsers.ForReference(sub.DocumentURL)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	start = time.Now()
	text, err := ps.Parse(bytes.NewReader(data))
	p.stats.Record(StageParse, time.Since(start))
	if err != nil {
		log.Error("parse failed", "error", err)
		return Result{}, fmt.Errorf("parse document: %w", err)
	}

	rec := p.extractor.Extract(text).WithDocumentURL(sub.DocumentURL)
	log.Debug("fields extracted", "name", rec.Name, "education", len(rec.Education),
		"qualifications", len(rec.Qualifications), "projects", len(rec.Projects))

	start = time.Now()
	err = p.sink.Append(ctx, rec)
	p.stats.Record(StageSink, time.Since(start))
	if err != nil {
		log.Error("sink append failed", "error", err)
		return Result{}, fmt.Errorf("store record: %w", err)
	}

	payload := notify.BuildPayload(rec, p.metadata(sub, id), p.now())
	start = time.Now()
	err = p.webhook.Send(ctx, payload)
	p.stats.Record(StageWebhook, time.Since(start))
	if err != nil {
		log.Error("webhook failed", "error", err)
		return Result{}, fmt.Errorf("send webhook: %w", err)
	}

	res := Result{SubmissionID: id, Record: rec}
	switch {
	case p.followUps == nil:
	case sub.ApplicantEmail == "":
		log.Warn("no applicant email, follow-up skipped")
	default:
		snap := p.followUps.Schedule(sub.ApplicantEmail, sub.ApplicantName, followup.NextAt(p.now(), p.followUpHour))
		res.FollowUp = &snap
	}

	log.Info("submission processed", "follow_up", res.FollowUp != nil)
	return res, nil
}

func (p *Processor) metadata(sub Submission, id string) notify.Metadata {
	meta := notify.Metadata{
		ApplicantName: p.candidate.Name,
		Email:         p.candidate.Email,
		Status:        sub.Status,
		SubmissionID:  id,
	}
	if meta.ApplicantName == "" {
		meta.ApplicantName = sub.ApplicantName
	}
	if meta.Email == "" {
		meta.Email = sub.ApplicantEmail
	}
	if meta.Status == "" {
		meta.Status = p.candidate.DefaultStatus
	}
	return meta
}
