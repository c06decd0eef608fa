package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/rebuildweb/internal/telemetry/metrics"
	"github.com/2beens/rebuildweb/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const defaultTimeout = 10 * time.Second

type operation struct {
	name     string
	fallback string
}

var (
	opLogin          = operation{name: "login", fallback: "Login failed"}
	opRegister       = operation{name: "register", fallback: "Registration failed"}
	opCurrentUser    = operation{name: "current_user", fallback: "Failed to fetch user data"}
	opCreateExercise = operation{name: "create_exercise", fallback: "Failed to create exercise"}
	opUpdateExercise = operation{name: "update_exercise", fallback: "Failed to update exercise"}
	opStatsTotal     = operation{name: "stats_total", fallback: "Failed to fetch statistics"}
	opStatsPerDay    = operation{name: "stats_per_day", fallback: "Failed to fetch statistics"}
	opStatsPerGroup  = operation{name: "stats_per_group", fallback: "Failed to fetch statistics"}
	opHealth         = operation{name: "health", fallback: "Backend unavailable"}
)

// Client is the single chokepoint for all calls to the ReBuild backend.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	schema           SchemaVersion
	loginFormEncoded bool
	metricsManager   *metrics.Manager
}

type NewClientParams struct {
	// BaseURL as returned by ResolveBaseURL.
	BaseURL string
	// HTTPClient defaults to a traced client with a 10s timeout.
	HTTPClient *http.Client
	Schema     SchemaVersion
	// LoginFormEncoded sends login credentials as an urlencoded form, instead of JSON.
	LoginFormEncoded bool
	MetricsManager   *metrics.Manager
}

func NewClient(params NewClientParams) (*Client, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("backend base url not set")
	}
	if _, err := url.Parse(params.BaseURL); err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	schema := params.Schema
	if schema == "" {
		schema = SchemaV2
	}

	return &Client{
		baseURL:          strings.TrimRight(params.BaseURL, "/"),
		httpClient:       httpClient,
		schema:           schema,
		loginFormEncoded: params.LoginFormEncoded,
		metricsManager:   params.MetricsManager,
	}, nil
}

func (c *Client) Schema() SchemaVersion {
	return c.schema
}

type response struct {
	statusCode int
	body       []byte
	cookies    []*http.Cookie
}

func (r *response) ok() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

type requestBody struct {
	reader      io.Reader
	contentType string
}

func jsonBody(v any) (*requestBody, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return &requestBody{reader: bytes.NewReader(b), contentType: "application/json"}, nil
}

func formBody(values url.Values) *requestBody {
	return &requestBody{
		reader:      strings.NewReader(values.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}
}

// call performs a single backend request. A returned error means no response was received.
func (c *Client) call(
	ctx context.Context,
	op operation,
	method, path string,
	session Session,
	body *requestBody,
) (resp *response, err error) {
	ctx, span := tracing.StartBackendSpan(ctx, op.name, method, path)
	begin := time.Now()
	defer func() {
		status := "error"
		if resp != nil {
			status = strconv.Itoa(resp.statusCode)
			span.SetAttributes(attribute.Int("http.status_code", resp.statusCode))
		}
		c.observe(op, status, time.Since(begin))
		tracing.EndSpan(span, err)
	}()

	var reqBody io.Reader
	if body != nil {
		reqBody = body.reader
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	req.Header.Set("Accept", "application/json")
	session.apply(req)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer httpResp.Body.Close()

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	log.Tracef("backend [%s] %s %s -> %d", op.name, method, path, httpResp.StatusCode)

	return &response{
		statusCode: httpResp.StatusCode,
		body:       respBytes,
		cookies:    httpResp.Cookies(),
	}, nil
}

func (c *Client) observe(op operation, status string, duration time.Duration) {
	if c.metricsManager == nil {
		return
	}
	c.metricsManager.CounterBackendCalls.WithLabelValues(op.name, status).Inc()
	c.metricsManager.HistBackendCallDuration.WithLabelValues(op.name).Observe(duration.Seconds())
}

func networkError(op operation, err error) error {
	return &FetchError{Op: op.name, Message: op.fallback, Err: err}
}

// sessionError translates a non-2xx response of a session bound call.
func sessionError(op operation, resp *response) error {
	if resp.statusCode == http.StatusUnauthorized {
		return &UnauthorizedError{Op: op.name, Message: errorMessage(resp.body, "Please log in")}
	}
	return &FetchError{
		Op:         op.name,
		StatusCode: resp.statusCode,
		Message:    errorMessage(resp.body, op.fallback),
	}
}

func (c *Client) Login(ctx context.Context, credentials Credentials) (*LoginResult, error) {
	credentials.Username = strings.TrimSpace(credentials.Username)
	if err := validateInput(&credentials); err != nil {
		return nil, err
	}

	var body *requestBody
	if c.loginFormEncoded {
		body = formBody(url.Values{
			"username": {credentials.Username},
			"password": {credentials.Password},
		})
	} else {
		var err error
		if body, err = jsonBody(credentials); err != nil {
			return nil, err
		}
	}

	resp, err := c.call(ctx, opLogin, http.MethodPost, "/login", Session{}, body)
	if err != nil {
		return nil, networkError(opLogin, err)
	}
	if !resp.ok() {
		return nil, &AuthError{
			Op:         opLogin.name,
			StatusCode: resp.statusCode,
			Message:    errorMessage(resp.body, opLogin.fallback),
		}
	}

	result := &LoginResult{Session: Session{Cookies: resp.cookies}}
	var msg messageWire
	if err := json.Unmarshal(resp.body, &msg); err == nil {
		result.Message = msg.Message
		result.Token = msg.Token
	}

	return result, nil
}

// Register creates a new account and returns the backend message.
func (c *Client) Register(ctx context.Context, profile RegisterProfile) (string, error) {
	profile.Username = strings.TrimSpace(profile.Username)
	profile.Email = strings.TrimSpace(profile.Email)
	if err := validateInput(&profile); err != nil {
		return "", err
	}

	body, err := jsonBody(profile)
	if err != nil {
		return "", err
	}

	resp, err := c.call(ctx, opRegister, http.MethodPost, "/register", Session{}, body)
	if err != nil {
		return "", networkError(opRegister, err)
	}
	if !resp.ok() {
		return "", &AuthError{
			Op:         opRegister.name,
			StatusCode: resp.statusCode,
			Message:    errorMessage(resp.body, opRegister.fallback),
		}
	}

	var msg messageWire
	_ = json.Unmarshal(resp.body, &msg)

	return msg.Message, nil
}

// CurrentUser asks the backend who owns the session. No session means no call is made.
func (c *Client) CurrentUser(ctx context.Context, session Session) (*User, error) {
	if session.IsZero() {
		return nil, &UnauthorizedError{Op: opCurrentUser.name, Message: "Please log in"}
	}

	resp, err := c.call(ctx, opCurrentUser, http.MethodGet, "/me", session, nil)
	if err != nil {
		return nil, networkError(opCurrentUser, err)
	}
	if !resp.ok() {
		return nil, sessionError(opCurrentUser, resp)
	}

	wire := newUserWire(c.schema)
	if err := decode(opCurrentUser, c.schema, resp.statusCode, resp.body, wire); err != nil {
		return nil, err
	}

	return wire.toUser(), nil
}

// CreateExercise validates the fields and posts them. The returned exercise is nil when
// the backend answers with a message only.
func (c *Client) CreateExercise(ctx context.Context, session Session, fields ExerciseFields) (*Exercise, error) {
	fields.Name = strings.TrimSpace(fields.Name)
	fields.Group = strings.TrimSpace(fields.Group)
	fields.Date = strings.TrimSpace(fields.Date)
	if err := validateInput(&fields); err != nil {
		return nil, err
	}

	body, err := jsonBody(fields)
	if err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, opCreateExercise, http.MethodPost, "/exercises", session, body)
	if err != nil {
		return nil, networkError(opCreateExercise, err)
	}
	if !resp.ok() {
		return nil, sessionError(opCreateExercise, resp)
	}

	return c.decodeMutation(opCreateExercise, resp)
}

// UpdateExerciseCompletion sets the completion flag of one exercise. Sending the same value twice is a no-op.
func (c *Client) UpdateExerciseCompletion(ctx context.Context, session Session, id int, completed bool) (*Exercise, error) {
	body, err := jsonBody(struct {
		IsCompleted bool `json:"is_completed"`
	}{IsCompleted: completed})
	if err != nil {
		return nil, err
	}

	path := "/exercises/" + strconv.Itoa(id)
	resp, err := c.call(ctx, opUpdateExercise, http.MethodPatch, path, session, body)
	if err != nil {
		return nil, networkError(opUpdateExercise, err)
	}
	if !resp.ok() {
		return nil, sessionError(opUpdateExercise, resp)
	}

	return c.decodeMutation(opUpdateExercise, resp)
}

func (c *Client) decodeMutation(op operation, resp *response) (*Exercise, error) {
	var mutation mutationWire
	if err := json.Unmarshal(resp.body, &mutation); err != nil {
		// not a JSON object, the mutation itself went through
		log.Debugf("backend [%s]: non object response: %s", op.name, err)
		return nil, nil
	}

	exerciseBytes := resp.body
	switch {
	case len(mutation.Exercise) > 0 && string(mutation.Exercise) != "null":
		exerciseBytes = mutation.Exercise
	case mutation.ID == nil:
		return nil, nil
	}

	wire := newExerciseWire(c.schema)
	if err := decode(op, c.schema, resp.statusCode, exerciseBytes, wire); err != nil {
		return nil, err
	}

	exercise := wire.toExercise()
	return &exercise, nil
}

func (c *Client) StatsTotal(ctx context.Context, session Session) (int, error) {
	var wire totalWire
	if err := c.getStats(ctx, opStatsTotal, "/stats/total_exercises", session, &wire); err != nil {
		return 0, err
	}
	return *wire.Total, nil
}

func (c *Client) StatsPerDay(ctx context.Context, session Session) ([]DayCount, error) {
	var wire perDayWire
	if err := c.getStats(ctx, opStatsPerDay, "/stats/exercises_per_day", session, &wire); err != nil {
		return nil, err
	}

	perDay := make([]DayCount, 0, len(wire.Days))
	for _, d := range wire.Days {
		perDay = append(perDay, DayCount{Date: d.Date, Count: *d.Count})
	}
	return perDay, nil
}

func (c *Client) StatsPerGroup(ctx context.Context, session Session) ([]GroupCount, error) {
	var wire perGroupWire
	if err := c.getStats(ctx, opStatsPerGroup, "/stats/exercises_per_group", session, &wire); err != nil {
		return nil, err
	}

	perGroup := make([]GroupCount, 0, len(wire.Groups))
	for _, g := range wire.Groups {
		perGroup = append(perGroup, GroupCount{Group: g.Group, Count: *g.Count})
	}
	return perGroup, nil
}

func (c *Client) getStats(ctx context.Context, op operation, path string, session Session, target any) error {
	resp, err := c.call(ctx, op, http.MethodGet, path, session, nil)
	if err != nil {
		return networkError(op, err)
	}
	if !resp.ok() {
		return sessionError(op, resp)
	}
	return decode(op, c.schema, resp.statusCode, resp.body, target)
}

// Health checks that the backend is reachable and answers with 2xx.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.call(ctx, opHealth, http.MethodGet, "/health", Session{}, nil)
	if err != nil {
		return networkError(opHealth, err)
	}
	if !resp.ok() {
		return &FetchError{Op: opHealth.name, StatusCode: resp.statusCode, Message: opHealth.fallback}
	}
	return nil
}
