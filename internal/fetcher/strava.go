package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"training-load/internal/faults"
	"training-load/internal/trainload"
)

const (
	defaultStravaBaseURL  = "https://www.strava.com/api/v3"
	defaultStravaTokenURL = "https://www.strava.com/oauth/token"
	maxPerPage            = 200
)

// StravaOptions parameterise the Strava activity source.
type StravaOptions struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
	PerPage      int
}

// Strava fetches athlete activities from the Strava v3 API using the
// refresh-token grant.
type Strava struct {
	opts    StravaOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewStrava constructs a Strava activity source. All three OAuth credentials
// must be configured.
func NewStrava(opts StravaOptions, logger zerolog.Logger) (*Strava, error) {
	var missing []string
	if opts.ClientID == "" {
		missing = append(missing, "strava.client_id")
	}
	if opts.ClientSecret == "" {
		missing = append(missing, "strava.client_secret")
	}
	if opts.RefreshToken == "" {
		missing = append(missing, "strava.refresh_token")
	}
	if len(missing) > 0 {
		return nil, faults.Tag(faults.ErrMissingCredentials,
			fmt.Errorf("strava: %s not configured", strings.Join(missing, ", ")))
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultStravaTokenURL
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultStravaBaseURL
	}

	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	source := conf.TokenSource(context.Background(), &oauth2.Token{RefreshToken: opts.RefreshToken})

	client := oauth2.NewClient(context.Background(), source)
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	} else {
		client.Timeout = 10 * time.Second
	}

	return &Strava{
		opts:    opts,
		logger:  logger.With().Str("component", "strava_fetcher").Logger(),
		client:  client,
		baseURL: baseURL,
	}, nil
}

// FetchActivities retrieves all activities started within the past N days,
// following pagination until a short page is returned.
func (s *Strava) FetchActivities(ctx context.Context, days int) ([]trainload.Activity, error) {
	if days < 1 {
		return nil, faults.Tag(faults.ErrInvalidInput, fmt.Errorf("days must be positive, got %d", days))
	}

	after := time.Now().UTC().AddDate(0, 0, -days).Unix()
	perPage := s.perPage()

	var all []trainload.Activity
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("after", strconv.FormatInt(after, 10))
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))

		batch, err := s.listActivities(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
	}

	s.logger.Debug().Int("days", days).Int("count", len(all)).Msg("fetched activities")
	return all, nil
}

// LatestActivity retrieves the athlete's most recent activity.
func (s *Strava) LatestActivity(ctx context.Context) (*trainload.Activity, error) {
	params := url.Values{}
	params.Set("per_page", "1")
	params.Set("page", "1")

	batch, err := s.listActivities(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}
	return &batch[0], nil
}

func (s *Strava) listActivities(ctx context.Context, params url.Values) ([]trainload.Activity, error) {
	endpoint := s.baseURL + "/athlete/activities?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, faults.Tag(faults.ErrUpstream, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Tag(faults.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, faults.Tag(faults.ErrUpstream,
			fmt.Errorf("strava api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	var raw []stravaActivity
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, faults.Tag(faults.ErrUpstream, fmt.Errorf("decode activities: %w", err))
	}

	activities := make([]trainload.Activity, 0, len(raw))
	for _, a := range raw {
		start, err := parseStartDate(a.StartDate)
		if err != nil {
			return nil, faults.Tag(faults.ErrUpstream, fmt.Errorf("activity %d: %w", a.ID, err))
		}
		activities = append(activities, trainload.Activity{
			ID:         a.ID,
			Kind:       trainload.ParseKind(a.Type),
			Distance:   a.Distance,
			MovingTime: a.MovingTime,
			AverageHR:  a.AverageHeartrate,
			StartDate:  start,
		})
	}
	return activities, nil
}

func (s *Strava) perPage() int {
	if s.opts.PerPage > 0 && s.opts.PerPage <= maxPerPage {
		return s.opts.PerPage
	}
	return maxPerPage
}

// parseStartDate interprets a provider timestamp as naive UTC, stripping any
// trailing zone marker first.
func parseStartDate(s string) (time.Time, error) {
	trimmed := strings.TrimSuffix(s, "Z")
	t, err := time.ParseInLocation("2006-01-02T15:04:05", trimmed, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start date %q: %w", s, err)
	}
	return t, nil
}

type stravaActivity struct {
	ID               int64    `json:"id"`
	Type             string   `json:"type"`
	Distance         float64  `json:"distance"`
	MovingTime       int      `json:"moving_time"`
	AverageHeartrate *float64 `json:"average_heartrate"`
	StartDate        string   `json:"start_date"`
}

var _ ActivitySource = (*Strava)(nil)
