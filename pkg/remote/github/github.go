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

// Package github exposes a repository's issues as a reduxify service.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/record"
	"github.com/walteh/reduxify/pkg/service"
	"gitlab.com/tozd/go/errors"
)

// PathIssues is the only path this client mounts
const PathIssues = "issues"

// IssuesAPI is the part of the GitHub issues API we call
type IssuesAPI interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	Get(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
	Edit(ctx context.Context, owner, repo string, number int, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
}

var _ IssuesAPI = (*github.IssuesService)(nil)

type options struct {
	httpClient *http.Client
	baseURL    string
	token      string
	api        IssuesAPI
}

// Option configures New
type Option func(*options)

// WithHTTPClient sets the transport client
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBaseURL points the client at another API root, e.g. an enterprise host
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithToken authenticates requests; defaults to $GITHUB_TOKEN
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithIssuesAPI replaces the GitHub API entirely
func WithIssuesAPI(api IssuesAPI) Option {
	return func(o *options) { o.api = api }
}

// 🐙 Client serves one repository's issues
type Client struct {
	owner  string
	repo   string
	issues *Issues
}

var _ service.Client = (*Client)(nil)
var _ service.PathLister = (*Client)(nil)

// New creates a client for name, given as "owner/repo"
func New(name string, opts ...Option) (*Client, error) {
	if name == "" {
		return nil, errors.Errorf("empty repository name")
	}
	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return nil, errors.Errorf("invalid repository name: %s", name)
	}
	owner := strings.TrimSpace(parts[0])
	repo := strings.TrimSpace(parts[1])
	if owner == "" || repo == "" {
		return nil, errors.Errorf("invalid repository name: %s", name)
	}

	o := &options{token: os.Getenv("GITHUB_TOKEN")}
	for _, opt := range opts {
		opt(o)
	}

	api := o.api
	if api == nil {
		gh := github.NewClient(o.httpClient)
		if o.token != "" {
			gh = gh.WithAuthToken(o.token)
		}
		if o.baseURL != "" {
			base := o.baseURL
			if !strings.HasSuffix(base, "/") {
				base += "/"
			}
			u, err := url.Parse(base)
			if err != nil {
				return nil, errors.Errorf("parsing base url %q: %w", o.baseURL, err)
			}
			gh.BaseURL = u
		}
		api = gh.Issues
	}

	return &Client{
		owner: owner,
		repo:  repo,
		issues: &Issues{
			api:       api,
			owner:     owner,
			repo:      repo,
			listeners: map[string][]*listener{},
		},
	}, nil
}

// Name returns "owner/repo"
func (c *Client) Name() string {
	return fmt.Sprintf("%s/%s", c.owner, c.repo)
}

func (c *Client) Paths() []string {
	return []string{PathIssues}
}

func (c *Client) Service(path string) (service.Service, error) {
	if strings.Trim(path, "/") != PathIssues {
		return nil, errors.Errorf("github client %s has no service %q", c.Name(), path)
	}
	return c.issues, nil
}

type listener struct {
	fn service.Listener
}

// Issues maps service calls onto the issues API. GitHub cannot delete an
// issue, so Remove closes it. Events are raised locally after each write.
type Issues struct {
	api   IssuesAPI
	owner string
	repo  string

	mu        sync.RWMutex
	listeners map[string][]*listener
}

var _ service.Service = (*Issues)(nil)

// maxPerPage is the largest page the issues API serves
const maxPerPage = 100

func (s *Issues) Find(ctx context.Context, params service.Params) (any, error) {
	query := params.Query()
	opts := &github.IssueListByRepoOptions{}

	if v, ok := query["state"].(string); ok {
		opts.State = v
	}
	if v, ok := query["assignee"].(string); ok {
		opts.Assignee = v
	}
	if v, ok := query["creator"].(string); ok {
		opts.Creator = v
	}
	labels, err := stringList(query["labels"])
	if err != nil {
		return nil, err
	}
	opts.Labels = labels

	limit, err := intValue(query["$limit"])
	if err != nil {
		return nil, err
	}
	skip, err := intValue(query["$skip"])
	if err != nil {
		return nil, err
	}

	data, total, err := s.window(ctx, opts, skip, limit)
	if err != nil {
		return nil, err
	}
	return record.QueryResult{Total: total, Limit: limit, Skip: skip, Data: data}, nil
}

// window pages through the listing so that exactly the items skip..skip+limit
// come back. The first page is the one holding item skip, and its leading
// items are dropped. GitHub reports no count, so total is exact once the
// listing is exhausted and otherwise the bound implied by the last-page link.
func (s *Issues) window(ctx context.Context, opts *github.IssueListByRepoOptions, skip, limit int) ([]any, int, error) {
	logger := zerolog.Ctx(ctx)

	size := limit
	if size <= 0 || size > maxPerPage {
		size = maxPerPage
	}
	opts.PerPage = size
	opts.Page = skip/size + 1
	offset := skip % size

	data := []any{}
	for {
		logger.Debug().Str("repo", s.owner+"/"+s.repo).Int("page", opts.Page).Int("per_page", size).Msg("listing issues")

		issues, resp, err := s.api.ListByRepo(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, 0, convert(err)
		}

		for i, issue := range issues {
			if i < offset {
				continue
			}
			if limit > 0 && len(data) == limit {
				break
			}
			data = append(data, fields(issue))
		}
		offset = 0

		if len(issues) < size || resp == nil || resp.NextPage == 0 {
			return data, (opts.Page-1)*size + len(issues), nil
		}
		if limit > 0 && len(data) == limit {
			total := skip + len(data)
			if resp.LastPage > 0 && resp.LastPage*size > total {
				total = resp.LastPage * size
			}
			return data, total, nil
		}
		opts.Page = resp.NextPage
	}
}

func (s *Issues) Get(ctx context.Context, id any, params service.Params) (any, error) {
	number, err := intValue(id)
	if err != nil {
		return nil, err
	}
	issue, _, err := s.api.Get(ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, convert(err)
	}
	return fields(issue), nil
}

func (s *Issues) Create(ctx context.Context, data any, params service.Params) (any, error) {
	req, err := request(data, true)
	if err != nil {
		return nil, err
	}
	issue, _, err := s.api.Create(ctx, s.owner, s.repo, req)
	if err != nil {
		return nil, convert(err)
	}
	out := fields(issue)
	s.emit("created", out)
	return out, nil
}

func (s *Issues) Update(ctx context.Context, id any, data any, params service.Params) (any, error) {
	return s.edit(ctx, "updated", id, data, true)
}

func (s *Issues) Patch(ctx context.Context, id any, data any, params service.Params) (any, error) {
	return s.edit(ctx, "patched", id, data, false)
}

func (s *Issues) Remove(ctx context.Context, id any, params service.Params) (any, error) {
	return s.edit(ctx, "removed", id, map[string]any{"state": "closed"}, false)
}

func (s *Issues) edit(ctx context.Context, event string, id any, data any, full bool) (any, error) {
	number, err := intValue(id)
	if err != nil {
		return nil, err
	}
	req, err := request(data, full)
	if err != nil {
		return nil, err
	}
	issue, _, err := s.api.Edit(ctx, s.owner, s.repo, number, req)
	if err != nil {
		return nil, convert(err)
	}
	out := fields(issue)
	s.emit(event, out)
	return out, nil
}

func (s *Issues) On(event string, fn service.Listener) func() {
	l := &listener{fn: fn}

	s.mu.Lock()
	s.listeners[event] = append(s.listeners[event], l)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ls := s.listeners[event]
		for i, x := range ls {
			if x == l {
				s.listeners[event] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (s *Issues) emit(event string, data any) {
	s.mu.RLock()
	ls := append([]*listener(nil), s.listeners[event]...)
	s.mu.RUnlock()

	for _, l := range ls {
		l.fn(data)
	}
}

func fields(i *github.Issue) map[string]any {
	labels := make([]any, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.GetName())
	}
	return map[string]any{
		"id":     i.GetNumber(),
		"title":  i.GetTitle(),
		"body":   i.GetBody(),
		"state":  i.GetState(),
		"user":   i.GetUser().GetLogin(),
		"url":    i.GetHTMLURL(),
		"labels": labels,
	}
}

// request builds an IssueRequest from data. A full request also resets the
// fields data leaves out.
func request(data any, full bool) (*github.IssueRequest, error) {
	m, ok := data.(map[string]any)
	if !ok && data != nil {
		return nil, action.NewError("bad-request", 400, fmt.Sprintf("issue data must be an object, got %T", data))
	}

	req := &github.IssueRequest{}
	str := func(key string) (*string, error) {
		v, ok := m[key]
		if !ok {
			if full {
				return github.String(""), nil
			}
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, action.NewError("bad-request", 400, fmt.Sprintf("%s must be a string", key))
		}
		return &s, nil
	}

	var err error
	if req.Title, err = str("title"); err != nil {
		return nil, err
	}
	if full && req.Title != nil && *req.Title == "" {
		return nil, action.NewError("bad-request", 400, "title is required")
	}
	if req.Body, err = str("body"); err != nil {
		return nil, err
	}
	if v, ok := m["state"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, action.NewError("bad-request", 400, "state must be a string")
		}
		req.State = &s
	}

	if v, ok := m["labels"]; ok || full {
		labels, err := stringList(v)
		if err != nil {
			return nil, err
		}
		if labels == nil {
			labels = []string{}
		}
		req.Labels = &labels
	}
	if v, ok := m["assignees"]; ok {
		assignees, err := stringList(v)
		if err != nil {
			return nil, err
		}
		req.Assignees = &assignees
	}
	return req, nil
}

func stringList(v any) ([]string, error) {
	switch l := v.(type) {
	case nil:
		return nil, nil
	case string:
		parts := strings.Split(l, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	case []string:
		return l, nil
	case []any:
		out := make([]string, 0, len(l))
		for _, x := range l {
			s, ok := x.(string)
			if !ok {
				return nil, action.NewError("bad-request", 400, fmt.Sprintf("expected a list of strings, got %T", x))
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, action.NewError("bad-request", 400, fmt.Sprintf("expected a list of strings, got %T", v))
}

func intValue(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		var out int
		if _, err := fmt.Sscanf(n, "%d", &out); err == nil {
			return out, nil
		}
	}
	return 0, action.NewError("bad-request", 400, fmt.Sprintf("invalid number %v", v))
}

var classes = map[int]string{
	http.StatusBadRequest:          "bad-request",
	http.StatusUnauthorized:        "not-authenticated",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not-found",
	http.StatusGone:                "gone",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusTooManyRequests:     "too-many-requests",
}

// convert turns API failures into errors carrying a class name and status code
func convert(err error) error {
	var ge *github.ErrorResponse
	if errors.As(err, &ge) && ge.Response != nil {
		code := ge.Response.StatusCode
		class, ok := classes[code]
		if !ok {
			class = "general-error"
		}
		return action.NewError(class, code, ge.Message)
	}
	var rl *github.RateLimitError
	if errors.As(err, &rl) {
		return action.NewError("too-many-requests", http.StatusTooManyRequests, rl.Message)
	}
	return errors.Errorf("github: %w", err)
}

// Labels lists the label names on issue data returned by this service
func Labels(issue any) []string {
	m, _ := issue.(map[string]any)
	l, _ := m["labels"].([]any)
	out := make([]string, 0, len(l))
	for _, x := range l {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
