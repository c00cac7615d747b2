package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// request is one line-delimited JSON call from the shell.
type request struct {
	ID   string          `json:"id"`
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args"`
}

// response mirrors a request by id. Exactly one of Result and Error is set.
type response struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Serve reads newline-delimited JSON requests from r and writes one
// response line per request to w. Requests without an id are assigned one
// so the shell can still correlate the reply. Serve returns when r is
// exhausted or ctx is done.
func (b *Bridge) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			if encErr := enc.Encode(response{ID: uuid.NewString(), Error: fmt.Sprintf("decode request: %v", err)}); encErr != nil {
				return encErr
			}
			continue
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		resp := response{ID: req.ID}
		result, err := b.Invoke(ctx, req.Op, req.Args)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Result = result
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}
