package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opentriage/triage/internal/providers"
)

// maxAttempts is the fixed attempt budget for one classification. The
// feedback loop is meant to converge quickly or not at all, so this is a
// design constant rather than configuration.
const maxAttempts = 3

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 2048
	defaultTimeout     = 120 * time.Second
)

// DriverConfig configures a repair-loop Driver.
type DriverConfig struct {
	Client providers.LLMClient

	// Model overrides the client's default model if set.
	Model string

	Temperature float64
	MaxTokens   int

	// Timeout bounds each individual model invocation. A timed-out call
	// consumes one attempt, exactly like a validation failure.
	Timeout time.Duration

	Logger *slog.Logger
}

// Driver runs the bounded extraction-and-repair loop for one issue at a
// time. It owns the conversation exclusively and hands the model a
// snapshot each attempt; the conversation and the attempt counter are the
// only state carried between attempts.
type Driver struct {
	client      providers.LLMClient
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *slog.Logger

	// OnAttempt, if set, receives a record after every attempt (valid,
	// invalid, or transport-failed). Used for call logging.
	OnAttempt func(AttemptRecord)
}

// AttemptRecord describes one attempt for diagnostics.
type AttemptRecord struct {
	RequestID        string
	Attempt          int
	Provider         string
	Model            string
	Latency          time.Duration
	PromptTokens     int
	CompletionTokens int
	Reply            string
	Violations       Violations
	TransportError   string
	Valid            bool
}

// NewDriver creates a Driver with defaults filled in.
func NewDriver(cfg DriverConfig) *Driver {
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Driver{
		client:      cfg.Client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

// Classify resolves one classification request to a Validated response or
// a terminal error. Retryable failures (transport errors, unparseable
// replies, validation failures) are handled inside the loop and never
// surface individually; after the budget runs out the caller gets an
// ExhaustedError carrying the last reply and violation set. There is no
// fallback classification.
func (d *Driver) Classify(ctx context.Context, req *Request) (*Validated, error) {
	if len(req.Templates) == 0 {
		return nil, fmt.Errorf("no issue-form templates available")
	}

	conv := BuildConversation(req)

	var lastReply string
	var lastVio Violations

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		reply, rec, err := d.generate(ctx, conv, attempt)
		if err != nil {
			// Transport/provider failure burns one attempt; the
			// conversation is left unchanged for the next try.
			lastReply = ""
			lastVio = Violations{fmt.Sprintf("model invocation failed: %v", err)}
			rec.TransportError = err.Error()
			d.record(rec)
			d.logger.Warn("model invocation failed",
				"attempt", attempt, "provider", d.client.Name(), "error", err)
			continue
		}

		validated, vio := d.check(reply, req)
		rec.Reply = reply
		rec.Violations = vio
		rec.Valid = vio.Empty()
		d.record(rec)

		if vio.Empty() {
			d.logger.Info("classification validated",
				"attempt", attempt, "template", validated.TemplateKey,
				"type", validated.Type, "priority", validated.Priority)
			return validated, nil
		}

		d.logger.Warn("classification attempt rejected",
			"attempt", attempt, "violations", len(vio))
		lastReply, lastVio = reply, vio

		if attempt < maxAttempts {
			conv = append(conv,
				providers.Message{Role: "assistant", Content: reply},
				providers.Message{Role: "user", Content: feedback(vio)},
			)
		}
	}

	return nil, &ExhaustedError{
		Attempts:   maxAttempts,
		LastReply:  lastReply,
		Violations: lastVio,
	}
}

// check requires a parseable JSON object before validating. An unparseable
// reply yields a synthetic single-item violation set without invoking the
// validator.
func (d *Driver) check(reply string, req *Request) (*Validated, Violations) {
	parsed, err := parseReply(reply)
	if err != nil {
		return nil, Violations{err.Error()}
	}
	return Validate(parsed, req.Templates)
}

// generate invokes the model with a snapshot of the conversation.
func (d *Driver) generate(ctx context.Context, conv []providers.Message, attempt int) (string, AttemptRecord, error) {
	snapshot := make([]providers.Message, len(conv))
	copy(snapshot, conv)

	rec := AttemptRecord{
		RequestID: uuid.New().String(),
		Attempt:   attempt,
		Provider:  d.client.Name(),
		Model:     d.model,
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	result, err := d.client.Chat(ctx, &providers.ChatRequest{
		Messages:       snapshot,
		Model:          d.model,
		Temperature:    d.temperature,
		MaxTokens:      d.maxTokens,
		ResponseFormat: ResponseFormat(),
		RequestID:      rec.RequestID,
	})
	rec.Latency = time.Since(start)

	if err != nil {
		return "", rec, err
	}

	rec.Model = result.ModelUsed
	rec.PromptTokens = result.PromptTokens
	rec.CompletionTokens = result.CompletionTokens
	return result.Content, rec, nil
}

func (d *Driver) record(rec AttemptRecord) {
	if d.OnAttempt != nil {
		d.OnAttempt(rec)
	}
}
