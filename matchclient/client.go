// Package matchclient plays games against other engines through a match
// server's HTTP API.
package matchclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/move"
)

var (
	// ErrRejected is returned when the server answers with a failure code.
	ErrRejected = errors.New("request rejected by match server")
)

const codeOK = "OK"

// Client talks to the match server. Every request is retried with
// exponential backoff unless the server rejected it outright.
type Client struct {
	baseURL    string
	apiKey     string
	userID     string
	httpClient *http.Client

	attempts uint
	delay    time.Duration
}

func NewClient(baseURL, apiKey, userID string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		userID:     userID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		attempts:   5,
		delay:      250 * time.Millisecond,
	}
}

// SetRetry changes how many times a request is tried and the initial
// backoff delay.
func (c *Client) SetRetry(attempts uint, delay time.Duration) {
	c.attempts = attempts
	c.delay = delay
}

// response is the envelope every server answer shares. Only some fields are
// set for any given request type.
type response struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	GameID  json.Number  `json:"gameId"`
	MoveID  json.Number  `json:"moveId"`
	Output  string       `json:"output"`
	Target  int          `json:"target"`
	Moves   []RemoteMove `json:"moves"`
}

// RemoteMove is a move as the server reports it.
type RemoteMove struct {
	MoveID json.Number `json:"moveId"`
	GameID json.Number `json:"gameId"`
	TeamID json.Number `json:"teamId"`
	Move   string      `json:"move"`
	Symbol string      `json:"symbol"`
	MoveX  int         `json:"moveX"`
	MoveY  int         `json:"moveY"`
}

// BoardState is the server's board: rows of 'X', 'O' and '-' plus the
// win length.
type BoardState struct {
	Rows   []string
	Target int
}

// Position converts the board into a game position. firstSymbol is the
// server's symbol for the player that moved first.
func (bs *BoardState) Position(firstSymbol string) (*game.Position, error) {
	first, second := strings.ToUpper(firstSymbol), "X"
	if first == "X" {
		second = "O"
	}
	replacer := strings.NewReplacer(first, board.First.String(), second, board.Second.String(),
		"-", board.Empty.String())
	rows := make([]string, len(bs.Rows))
	for i, r := range bs.Rows {
		rows[i] = replacer.Replace(strings.ToUpper(r))
	}
	return game.FromRows(rows, bs.Target)
}

func (c *Client) do(ctx context.Context, method string, params url.Values) (*response, error) {
	var resp *response
	err := retry.Do(
		func() error {
			var err error
			resp, err = c.roundTrip(ctx, method, params)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Debug().Err(err).Uint("n", n).Str("type", params.Get("type")).
				Msg("match-server-request-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, method string, params url.Values) (*response, error) {
	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("userId", c.userID)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(body))
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, retry.Unrecoverable(fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(body)))
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Code != codeOK {
		return nil, retry.Unrecoverable(fmt.Errorf("%w: %s", ErrRejected, resp.Message))
	}
	return &resp, nil
}

// CreateGame starts a game between two teams and returns its id.
func (c *Client) CreateGame(ctx context.Context, teamID, opponentTeamID string, dim, winLength int) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, url.Values{
		"type":      {"game"},
		"teamId1":   {teamID},
		"teamId2":   {opponentTeamID},
		"gameType":  {"TTT"},
		"boardSize": {strconv.Itoa(dim)},
		"target":    {strconv.Itoa(winLength)},
	})
	if err != nil {
		return "", err
	}
	return resp.GameID.String(), nil
}

// GetBoard fetches the current board of a game.
func (c *Client) GetBoard(ctx context.Context, gameID string) (*BoardState, error) {
	resp, err := c.do(ctx, http.MethodGet, url.Values{
		"type":   {"boardString"},
		"gameId": {gameID},
	})
	if err != nil {
		return nil, err
	}
	rows := strings.Fields(resp.Output)
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty board for game %s", gameID)
	}
	return &BoardState{Rows: rows, Target: resp.Target}, nil
}

// GetMoves returns up to count of the most recent moves, newest first.
func (c *Client) GetMoves(ctx context.Context, gameID string, count int) ([]RemoteMove, error) {
	resp, err := c.do(ctx, http.MethodGet, url.Values{
		"type":   {"moves"},
		"gameId": {gameID},
		"count":  {strconv.Itoa(count)},
	})
	if errors.Is(err, ErrRejected) {
		// the server fails the request when there are no moves yet.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Moves, nil
}

// MakeMove plays m for teamID and returns the server's move id.
func (c *Client) MakeMove(ctx context.Context, gameID, teamID string, m *move.Move) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, url.Values{
		"type":   {"move"},
		"gameId": {gameID},
		"teamId": {teamID},
		"move":   {fmt.Sprintf("%d,%d", m.Row(), m.Col())},
	})
	if err != nil {
		return "", fmt.Errorf("failed to make move %s: %w", m.ShortDescription(), err)
	}
	return resp.MoveID.String(), nil
}
