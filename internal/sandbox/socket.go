// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"grimm.is/dplink/internal/errors"
)

// libpodAPIVersion is the REST API prefix podman 4 and 5 both serve.
const libpodAPIVersion = "v4.0.0"

// SocketBackend talks to the libpod REST API over its Unix socket.
type SocketBackend struct {
	client  *http.Client
	baseURL string
}

// NewSocketBackend creates a backend connected to socketPath.
// Requests carry no timeout: a hung podman blocks the caller.
func NewSocketBackend(socketPath string) *SocketBackend {
	if socketPath == "" {
		socketPath = "/run/podman/podman.sock"
	}

	return &SocketBackend{
		baseURL: "http://d/" + libpodAPIVersion + "/libpod",
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// NewSocketBackendWithClient targets an arbitrary base URL, e.g. a test server.
func NewSocketBackendWithClient(baseURL string, client *http.Client) *SocketBackend {
	return &SocketBackend{client: client, baseURL: baseURL + "/" + libpodAPIVersion + "/libpod"}
}

// apiError is libpod's error body.
type apiError struct {
	Cause    string `json:"cause"`
	Message  string `json:"message"`
	Response int    `json:"response"`
}

func (b *SocketBackend) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.KindInternal, "failed to encode request")
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, rdr)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindBackend, "podman socket request %s %s failed", method, path)
	}
	return resp, nil
}

func (b *SocketBackend) failure(resp *http.Response, method, path string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := string(bytes.TrimSpace(data))
	var apiErr apiError
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return errors.Errorf(errors.KindBackend, "%s %s: unexpected status code %d: %s", method, path, resp.StatusCode, msg)
}

func (b *SocketBackend) exists(ctx context.Context, path string) (bool, error) {
	resp, err := b.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, b.failure(resp, http.MethodGet, path)
	}
}

// PodExists implements Backend.
func (b *SocketBackend) PodExists(ctx context.Context, name string) (bool, error) {
	return b.exists(ctx, fmt.Sprintf("/pods/%s/exists", url.PathEscape(name)))
}

// ContainerExists implements Backend.
func (b *SocketBackend) ContainerExists(ctx context.Context, id string) (bool, error) {
	return b.exists(ctx, fmt.Sprintf("/containers/%s/exists", url.PathEscape(id)))
}

type podNamespace struct {
	NSMode string `json:"nsmode"`
}

type podCreateRequest struct {
	Name   string            `json:"name"`
	NetNS  *podNamespace     `json:"netns,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// PodCreate implements Backend.
func (b *SocketBackend) PodCreate(ctx context.Context, name string, opts CreateOptions) error {
	reqBody := podCreateRequest{Name: name, Labels: opts.Labels}
	if opts.Network != "" {
		reqBody.NetNS = &podNamespace{NSMode: opts.Network}
	}

	const path = "/pods/create"
	resp, err := b.do(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return b.failure(resp, http.MethodPost, path)
	}
	return nil
}

// PodStart implements Backend. 304 means the pod already runs.
func (b *SocketBackend) PodStart(ctx context.Context, name string) error {
	path := fmt.Sprintf("/pods/%s/start", url.PathEscape(name))
	resp, err := b.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotModified {
		return b.failure(resp, http.MethodPost, path)
	}
	return nil
}

// PodInspect implements Backend.
func (b *SocketBackend) PodInspect(ctx context.Context, name string) (*Info, error) {
	path := fmt.Sprintf("/pods/%s/json", url.PathEscape(name))
	resp, err := b.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, b.failure(resp, http.MethodGet, path)
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, errors.KindDecode, "failed to decode pod inspection")
	}
	return &info, nil
}

// ContainerInspect implements Backend.
func (b *SocketBackend) ContainerInspect(ctx context.Context, id string) (*Container, error) {
	path := fmt.Sprintf("/containers/%s/json", url.PathEscape(id))
	resp, err := b.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, b.failure(resp, http.MethodGet, path)
	}

	var ci containerInspect
	if err := json.NewDecoder(resp.Body).Decode(&ci); err != nil {
		return nil, errors.Wrap(err, errors.KindDecode, "failed to decode container inspection")
	}
	return ci.container(), nil
}
