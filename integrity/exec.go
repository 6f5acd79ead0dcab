// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package integrity

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ExecProvider obtains tokens from an external program, typically a bridge to
// the platform attestation service. The program is run once per token
// request with the nonce appended as its last argument, and must print the
// token on stdout and exit with status zero.
type ExecProvider struct {
	Path   string   // program to run
	Args   []string // arguments placed before the nonce
	Logger zerolog.Logger

	requests  *Registry[string]
	responses *Registry[*execJob]
}

type execJob struct {
	cancel context.CancelFunc
	done   chan struct{}
	token  string
	err    error
}

// NewExecProvider instantiates an ExecProvider running path with the
// supplied leading arguments.
func NewExecProvider(path string, args ...string) (*ExecProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("no token program supplied")
	}

	return &ExecProvider{
		Path:      path,
		Args:      args,
		Logger:    log.Logger,
		requests:  NewRegistry[string](),
		responses: NewRegistry[*execJob](),
	}, nil
}

func (o *ExecProvider) CreateRequest(nonce string) (RequestHandle, error) {
	if nonce == "" {
		return 0, errors.New("empty nonce")
	}

	return RequestHandle(o.requests.Put(nonce)), nil
}

// RequestToken starts the token program and returns without waiting for it.
func (o *ExecProvider) RequestToken(req RequestHandle) (ResponseHandle, error) {
	nonce, ok := o.requests.Get(uint64(req))
	if !ok {
		return 0, ErrUnknownHandle
	}

	ctx, cancel := context.WithCancel(context.Background())

	args := append(append([]string{}, o.Args...), nonce)
	cmd := exec.CommandContext(ctx, o.Path, args...)

	job := &execJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)

		out, err := cmd.Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
				err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
			}
			job.err = fmt.Errorf("token program %s failed: %w", o.Path, err)
			return
		}

		job.token = strings.TrimSpace(string(out))
		if job.token == "" {
			job.err = fmt.Errorf("token program %s printed no token", o.Path)
		}
	}()

	o.Logger.Debug().Str("program", o.Path).Msg("token program started")

	return ResponseHandle(o.responses.Put(job)), nil
}

func (o *ExecProvider) PollStatus(res ResponseHandle) (Status, error) {
	job, ok := o.responses.Get(uint64(res))
	if !ok {
		return StatusUnknown, ErrUnknownHandle
	}

	select {
	case <-job.done:
		if job.err != nil {
			return StatusUnknown, job.err
		}
		return StatusCompleted, nil
	default:
		return StatusInProgress, nil
	}
}

func (o *ExecProvider) Token(res ResponseHandle) (string, error) {
	job, ok := o.responses.Get(uint64(res))
	if !ok {
		return "", ErrUnknownHandle
	}

	select {
	case <-job.done:
		if job.err != nil {
			return "", job.err
		}
		return job.token, nil
	default:
		return "", ErrNotReady
	}
}

func (o *ExecProvider) ReleaseRequest(req RequestHandle) {
	o.requests.Release(uint64(req))
}

// ReleaseResponse kills the token program if it is still running.
func (o *ExecProvider) ReleaseResponse(res ResponseHandle) {
	if job, ok := o.responses.Release(uint64(res)); ok {
		job.cancel()
	}
}

// Close kills every token program still running and drops all handles.
func (o *ExecProvider) Close() error {
	for _, job := range o.responses.Drain() {
		job.cancel()
	}
	o.requests.Drain()

	return nil
}
