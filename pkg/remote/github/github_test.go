// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/record"
	"github.com/walteh/reduxify/pkg/service"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

const issueJSON = `{"number":%d,"title":"%s","body":"b","state":"%s","html_url":"https://example.com/%d","user":{"login":"walteh"},"labels":[{"name":"bug"},{"name":"area/core"}]}`

func issue(number int, title, state string) string {
	return fmt.Sprintf(issueJSON, number, title, state, number)
}

type fakeServer struct {
	t        *testing.T
	lastBody map[string]any
	urls     []string
	titles   []string
}

func newServer(t *testing.T, titles ...string) (*fakeServer, *Client) {
	if len(titles) == 0 {
		titles = []string{"first", "second"}
	}
	f := &fakeServer{t: t, titles: titles}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /repos/walteh/reduxify/issues", func(w http.ResponseWriter, r *http.Request) {
		f.urls = append(f.urls, r.URL.String())
		f.list(w, r)
	})
	mux.HandleFunc("GET /repos/walteh/reduxify/issues/{number}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("number") != "1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Not Found"}`)
			return
		}
		_, _ = io.WriteString(w, issue(1, "first", "open"))
	})
	mux.HandleFunc("POST /repos/walteh/reduxify/issues", func(w http.ResponseWriter, r *http.Request) {
		f.decode(r)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, issue(3, f.lastBody["title"].(string), "open"))
	})
	mux.HandleFunc("PATCH /repos/walteh/reduxify/issues/{number}", func(w http.ResponseWriter, r *http.Request) {
		f.decode(r)
		state := "open"
		if s, ok := f.lastBody["state"].(string); ok {
			state = s
		}
		_, _ = io.WriteString(w, issue(1, "first", state))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New("walteh/reduxify", WithHTTPClient(srv.Client()), WithBaseURL(srv.URL), WithToken(""))
	require.NoError(t, err)
	return f, c
}

// list serves f.titles a page at a time with Link headers, as the API does
func (f *fakeServer) list(w http.ResponseWriter, r *http.Request) {
	perPage, page := 30, 1
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		perPage = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = v
	}

	last := (len(f.titles) + perPage - 1) / perPage
	if page < last {
		link := func(p int) string {
			q := r.URL.Query()
			q.Set("page", strconv.Itoa(p))
			return fmt.Sprintf("<http://%s%s?%s>", r.Host, r.URL.Path, q.Encode())
		}
		w.Header().Set("Link", fmt.Sprintf(`%s; rel="next", %s; rel="last"`, link(page+1), link(last)))
	}

	items := []string{}
	for i := (page - 1) * perPage; i < page*perPage && i < len(f.titles); i++ {
		items = append(items, issue(i+1, f.titles[i], "open"))
	}
	_, _ = io.WriteString(w, "["+strings.Join(items, ",")+"]")
}

func (f *fakeServer) lastURL() string {
	if len(f.urls) == 0 {
		return ""
	}
	return f.urls[len(f.urls)-1]
}

func (f *fakeServer) decode(r *http.Request) {
	f.lastBody = map[string]any{}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastBody))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "walteh/reduxify", false},
		{"with_whitespace", " walteh / reduxify ", false},
		{"empty", "", true},
		{"missing_slash", "waltehreduxify", true},
		{"too_many_slashes", "a/b/c", true},
		{"empty_owner", "/reduxify", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.input, WithToken(""))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "walteh/reduxify", c.Name())
			assert.Equal(t, []string{"issues"}, c.Paths())
		})
	}
}

func TestService(t *testing.T) {
	_, c := newServer(t)

	_, err := c.Service("issues")
	require.NoError(t, err)
	_, err = c.Service("/issues/")
	require.NoError(t, err)
	_, err = c.Service("pulls")
	require.Error(t, err)
}

func TestFind(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		f, c := newServer(t)
		svc, err := c.Service("issues")
		require.NoError(t, err)

		res, err := svc.Find(testContext(t), service.Params{"query": map[string]any{
			"state":  "open",
			"labels": []any{"bug"},
		}})
		require.NoError(t, err)

		qr := res.(record.QueryResult)
		assert.Equal(t, 2, qr.Total)
		require.Len(t, qr.Data, 2)
		assert.Equal(t, "first", qr.Data[0].(map[string]any)["title"])
		assert.Equal(t, []string{"area/core", "bug"}, Labels(qr.Data[0]))

		assert.Contains(t, f.lastURL(), "state=open")
		assert.Contains(t, f.lastURL(), "labels=bug")
		assert.Contains(t, f.lastURL(), "per_page=100")
	})

	titles := []string{"i1", "i2", "i3", "i4", "i5", "i6", "i7"}

	tests := []struct {
		name      string
		limit     int
		skip      int
		want      []string
		wantTotal int
		wantCalls int
	}{
		{name: "aligned", limit: 2, skip: 2, want: []string{"i3", "i4"}, wantTotal: 8, wantCalls: 1},
		{name: "unaligned_spans_pages", limit: 3, skip: 2, want: []string{"i3", "i4", "i5"}, wantTotal: 9, wantCalls: 2},
		{name: "skip_without_limit", skip: 5, want: []string{"i6", "i7"}, wantTotal: 7, wantCalls: 1},
		{name: "limit_past_end", limit: 5, skip: 5, want: []string{"i6", "i7"}, wantTotal: 7, wantCalls: 1},
		{name: "everything", want: titles, wantTotal: 7, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newServer(t, titles...)
			svc, err := c.Service("issues")
			require.NoError(t, err)

			query := map[string]any{}
			if tt.limit > 0 {
				query["$limit"] = tt.limit
			}
			if tt.skip > 0 {
				query["$skip"] = tt.skip
			}

			res, err := svc.Find(testContext(t), service.Params{"query": query})
			require.NoError(t, err)

			qr := res.(record.QueryResult)
			got := []string{}
			for _, d := range qr.Data {
				got = append(got, d.(map[string]any)["title"].(string))
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.skip, qr.Skip)
			assert.Equal(t, tt.limit, qr.Limit)
			assert.Equal(t, tt.wantTotal, qr.Total)
			assert.Len(t, f.urls, tt.wantCalls)
		})
	}
}

func TestGet(t *testing.T) {
	_, c := newServer(t)
	svc, err := c.Service("issues")
	require.NoError(t, err)

	res, err := svc.Get(testContext(t), 1, nil)
	require.NoError(t, err)
	got := res.(map[string]any)
	assert.Equal(t, 1, got["id"])
	assert.Equal(t, "walteh", got["user"])
	assert.Equal(t, "https://example.com/1", got["url"])

	_, err = svc.Get(testContext(t), 7, nil)
	require.Error(t, err)
	var ae *action.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "not-found", ae.ClassName)
	assert.Equal(t, 404, ae.Code)
	assert.Equal(t, "Not Found", ae.Message)

	_, err = svc.Get(testContext(t), "seven", nil)
	require.Error(t, err)
}

func TestWrites(t *testing.T) {
	f, c := newServer(t)
	svc, err := c.Service("issues")
	require.NoError(t, err)
	ctx := testContext(t)

	var events []string
	for _, e := range []string{"created", "updated", "patched", "removed"} {
		svc.On(e, func(any) { events = append(events, e) })
	}

	created, err := svc.Create(ctx, map[string]any{"title": "third", "labels": "bug, ui"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, created.(map[string]any)["id"])
	assert.Equal(t, "third", f.lastBody["title"])
	assert.Equal(t, []any{"bug", "ui"}, f.lastBody["labels"])

	_, err = svc.Update(ctx, 1, map[string]any{"title": "first"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", f.lastBody["body"], "update resets missing fields")
	assert.Equal(t, []any{}, f.lastBody["labels"])

	_, err = svc.Patch(ctx, 1, map[string]any{"body": "more"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"body": "more"}, f.lastBody, "patch sends only given fields")

	removed, err := svc.Remove(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "closed", removed.(map[string]any)["state"])

	assert.Equal(t, []string{"created", "updated", "patched", "removed"}, events)

	_, err = svc.Create(ctx, map[string]any{"body": "untitled"}, nil)
	require.Error(t, err)
	_, err = svc.Patch(ctx, 1, map[string]any{"title": 5}, nil)
	require.Error(t, err)
	_, err = svc.Create(ctx, []string{"nope"}, nil)
	require.Error(t, err)
}

func TestOff(t *testing.T) {
	_, c := newServer(t)
	svc, err := c.Service("issues")
	require.NoError(t, err)

	calls := 0
	off := svc.On("patched", func(any) { calls++ })
	_, err = svc.Patch(testContext(t), 1, map[string]any{"body": "x"}, nil)
	require.NoError(t, err)
	off()
	_, err = svc.Patch(testContext(t), 1, map[string]any{"body": "y"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}
