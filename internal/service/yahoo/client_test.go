package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "MarketPulse/pkg/http"
)

const chartOK = `{"chart":{"result":[{"meta":{"symbol":"^GSPC","currency":"USD"},
"timestamp":[1700172800,1700000000,1700086400,1700086400,1700259200,1700345600],
"indicators":{"quote":[{"close":[103.0,101.5,null,102.25,-1,104.5]}]}}],"error":null}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(apphttp.NewClient(apphttp.WithTimeout(2*time.Second)), WithBaseURL(srv.URL+"/"))
}

func TestFetchDaily(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("range") + "|" + r.URL.Query().Get("interval") + "|" + r.URL.Query().Get("includePrePost")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartOK))
	})

	pts, err := c.FetchDaily(context.Background(), "^GSPC")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/^GSPC" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "3mo|1d|false" {
		t.Fatalf("query = %q", gotQuery)
	}

	// null and negative closes dropped, duplicate timestamp collapsed, sorted ascending
	want := []float64{101.5, 102.25, 103.0, 104.5}
	if len(pts) != len(want) {
		t.Fatalf("points = %+v", pts)
	}
	for i, p := range pts {
		if p.Close != want[i] {
			t.Fatalf("close[%d] = %v, want %v", i, p.Close, want[i])
		}
		if i > 0 && !p.Time.After(pts[i-1].Time) {
			t.Fatalf("timestamps not strictly increasing at %d", i)
		}
	}
}

func TestFetchDailyErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		checkFn func(error) bool
	}{
		{"server error", http.StatusInternalServerError, "boom", func(err error) bool {
			var se *apphttp.StatusError
			return errors.As(err, &se) && se.StatusCode == http.StatusInternalServerError
		}},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, func(err error) bool {
			return err != nil
		}},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, func(err error) bool {
			return errors.Is(err, ErrNoData)
		}},
		{"all null", http.StatusOK, `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[null,null]}]}}]}}`, func(err error) bool {
			return errors.Is(err, ErrNoData)
		}},
		{"bad json", http.StatusOK, `{"chart":`, func(err error) bool { return err != nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.FetchDaily(context.Background(), "XXX")
			if err == nil || !tc.checkFn(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFetchDailyHonoursContextDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := c.FetchDaily(ctx, "SLOW"); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("fetch did not respect context deadline")
	}
}
