package timeclock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"timebank.service/internal/core/journey"
	"timebank.service/internal/core/model"
)

var (
	ErrInvalidCredentials = errors.New("time clock rejected the badge or consultation code")
	ErrSubmissionRejected = errors.New("time clock rejected the justification")
	ErrUnexpectedPage     = errors.New("unexpected time clock page")
)

const (
	userAgent = "Mozilla/5.0 (Windows; U; MSIE 9.0; Windows NT 9.0; en-US);"

	invalidCredentialsMarker = "Código de Consulta Inválido"
	submissionOKMarker       = "Operação efetuada com sucesso"

	formDate = "02/01/2006"
)

// Client talks to the time clock's form-based web front end. Pages are
// windows-1252 encoded; a session is opened lazily on first use.
type Client struct {
	baseURL  string
	user     string
	password string
	loc      *time.Location
	http     *http.Client

	mu      sync.Mutex
	session *session
}

type session struct {
	tmpUser  string
	userCode string
	badge    string
}

// NewClient creates a client for the time clock at baseURL, e.g.
// http://forponto/forponto/FptoWeb.exe. Punch clocks are read in loc.
func NewClient(baseURL, user, password string, loc *time.Location) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		user:     user,
		password: password,
		loc:      loc,
		http: &http.Client{
			Jar:       jar,
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// Login opens a session. It is called implicitly by ReadDays and Justify.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	doc, err := c.fetch(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	tmpUser, ok := doc.Find(`input[name="deEdtUserId"]`).Attr("value")
	if !ok {
		return fmt.Errorf("%w: login page has no user id field", ErrUnexpectedPage)
	}

	doc, err = c.fetch(ctx, http.MethodPost, "PiConexaoUsuario", url.Values{
		"deEdtFunCrachaSel": {c.user},
		"deEdtFunConsulta":  {c.password},
		"deEdtDataDe":       {""},
		"deEdtDataAte":      {""},
		"deEdtUserId":       {tmpUser},
		"deEdtPerfil":       {"C"},
		"deEdtUsuCodigo":    {""},
		"deEdtFunCracha":    {c.user},
		"deEdtCrUsR":        {"K"},
		"deEdtValidaMsg":    {"N"},
	})
	if err != nil {
		return err
	}
	if strings.Contains(doc.Text(), invalidCredentialsMarker) {
		return ErrInvalidCredentials
	}

	doc, err = c.followTopFrame(ctx, doc)
	if err != nil {
		return err
	}

	s := &session{
		tmpUser:  doc.Find(`input[name="deEdtUserId"]`).AttrOr("value", ""),
		userCode: doc.Find(`input[name="deEdtUsuCodigo"]`).AttrOr("value", ""),
		badge:    doc.Find(`input[name="deEdtFunCracha"]`).AttrOr("value", ""),
	}
	if s.tmpUser == "" || s.badge == "" {
		return fmt.Errorf("%w: session fields missing after login", ErrUnexpectedPage)
	}

	c.session = s
	return nil
}

func (c *Client) currentSession(ctx context.Context) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}
	return c.session, nil
}

// dropSession forgets s unless another caller already replaced it.
func (c *Client) dropSession(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == s {
		c.session = nil
	}
}

// withSession runs call on the current session. The time clock answers an
// expired session with an ordinary page, so a rejected or unrecognised page
// drops the session and call runs once more after a fresh login.
func (c *Client) withSession(ctx context.Context, call func(*session) error) error {
	s, err := c.currentSession(ctx)
	if err != nil {
		return err
	}

	err = call(s)
	if !errors.Is(err, ErrSubmissionRejected) && !errors.Is(err, ErrUnexpectedPage) {
		return err
	}

	log.Ctx(ctx).Info().Err(err).Msg("Time clock session may have expired, logging in again")
	c.dropSession(s)

	s, err = c.currentSession(ctx)
	if err != nil {
		return err
	}
	return call(s)
}

// ReadDays fetches the punch table for [from, to].
func (c *Client) ReadDays(ctx context.Context, from, to time.Time) ([]journey.Day, error) {
	ctx, span := tracer().Start(ctx, "timeclock.read_days", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var rows []journey.Day
	err := c.withSession(ctx, func(s *session) error {
		var err error
		rows, err = c.readDays(ctx, s, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("app.days", len(rows)))
	return rows, nil
}

func (c *Client) readDays(ctx context.Context, s *session, from, to time.Time) ([]journey.Day, error) {
	doc, err := c.fetch(ctx, http.MethodPost, "PiConsulta", url.Values{
		"deEdtFunCrachaSel": {c.user},
		"deEdtDataDe":       {from.Format(formDate)},
		"deEdtDataAte":      {to.Format(formDate)},
		"deEdtUserId":       {s.tmpUser},
		"deEdtPerfil":       {"C"},
		"deEdtFunCracha":    {c.user},
		"deEdtCrUsR":        {"K"},
	})
	if err != nil {
		return nil, err
	}

	doc, err = c.followTopFrame(ctx, doc)
	if err != nil {
		return nil, err
	}
	return ParsePunchTable(doc, c.loc)
}

// Justify posts one justification under code.
func (c *Client) Justify(ctx context.Context, day time.Time, code model.JustificationCode, text string) error {
	ctx, span := tracer().Start(ctx, "timeclock.justify",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("app.code", int(code)), attribute.String("app.day", day.Format(time.DateOnly))),
	)
	defer span.End()

	return c.withSession(ctx, func(s *session) error {
		return c.justify(ctx, s, day, code, text)
	})
}

func (c *Client) justify(ctx context.Context, s *session, day time.Time, code model.JustificationCode, text string) error {
	doc, err := c.fetch(ctx, http.MethodPost, "PiGravaJust", url.Values{
		"deEdtDataDe":           {day.Format(formDate)},
		"deEdtMtvCodigo":        {fmt.Sprint(int(code))},
		"deEdtJusJustificativa": {text},
		"deEdtFunCracha":        {s.badge},
		"deEdtUserId":           {s.tmpUser},
		"UserPrr":               {"SSS"},
		"deEdtUsuCodigo":        {s.userCode},
		"deEdtPerfil":           {"C"},
		"EdtUsuPermissoes":      {"NNNNNNNNNNXNN"},
		"deEdtEpsCodigo":        {"00001"},
		"deEdtFormOrigem":       {"844"},
	})
	if err != nil {
		return err
	}

	if !strings.Contains(doc.Text(), submissionOKMarker) {
		return fmt.Errorf("%w: code %d on %s", ErrSubmissionRejected, code, day.Format(formDate))
	}
	return nil
}

func (c *Client) followTopFrame(ctx context.Context, doc *goquery.Document) (*goquery.Document, error) {
	src, ok := doc.Find(`frame[name="topFrame"], frame#topFrame`).First().Attr("src")
	if !ok || src == "" {
		return nil, fmt.Errorf("%w: no top frame", ErrUnexpectedPage)
	}
	return c.fetch(ctx, http.MethodGet, src, nil)
}

func (c *Client) fetch(ctx context.Context, method, path string, form url.Values) (*goquery.Document, error) {
	var body *strings.Reader
	if form != nil {
		encoded, err := encodeForm(form)
		if err != nil {
			return nil, err
		}
		body = strings.NewReader(encoded)
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create time clock request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call time clock: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("time clock returned non-successful status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(charmap.Windows1252.NewDecoder().Reader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse time clock page: %w", err)
	}
	return doc, nil
}

// resolve maps action names and frame sources onto the base URL.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// encodeForm url-encodes the form with every value in windows-1252.
// Characters outside the code page are replaced rather than rejected.
func encodeForm(form url.Values) (string, error) {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out := make(url.Values, len(form))
	for k, vs := range form {
		for _, v := range vs {
			b, err := enc.String(v)
			if err != nil {
				return "", fmt.Errorf("failed to encode form field %s: %w", k, err)
			}
			out.Add(k, b)
		}
	}
	return out.Encode(), nil
}

func tracer() trace.Tracer {
	return otel.Tracer("timeclock-client")
}
