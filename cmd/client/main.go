package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/internal/protocol"
	"github.com/kiryu-dev/scoreboard-sync/pkg/utils"
	"github.com/pkg/errors"
)

func main() {
	var (
		addr  = flag.String("addr", "localhost:8080", "server address")
		path  = flag.String("path", "/ws", "websocket path")
		kind  = flag.String("kind", string(domain.OperationClient), "client type sent in the handshake")
		token = flag.String("token", "", "master token from a previous session")
	)
	flag.Parse()
	u := url.URL{Scheme: "ws", Host: *addr, Path: *path}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial: " + err.Error())
	}
	defer func() {
		_ = conn.Close()
	}()
	client := newClient(conn, *token)
	if err := client.write(domain.NewHandshake(domain.ClientKind(*kind), *token)); err != nil {
		log.Fatal(err)
	}
	go client.handleInput()
	if err := client.handleMessages(); err != nil {
		log.Fatal(err)
	}
}

type client struct {
	conn    *websocket.Conn
	scanner *bufio.Scanner
	writeMu *sync.Mutex
	tokenMu *sync.Mutex
	token   string
}

func newClient(conn *websocket.Conn, token string) *client {
	return &client{
		conn:    conn,
		scanner: bufio.NewScanner(os.Stdin),
		writeMu: &sync.Mutex{},
		tokenMu: &sync.Mutex{},
		token:   token,
	}
}

func (c *client) write(msg domain.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return errors.WithMessage(err, "encode message")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.WithMessage(err, "write message")
	}
	return nil
}

func (c *client) handleMessages() error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				fmt.Println("server closed the connection")
				return nil
			}
			return errors.WithMessage(err, "read message")
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			fmt.Printf("skipping message: %v\n", err)
			continue
		}
		switch m := msg.(type) {
		case domain.RoleAssignment:
			fmt.Printf("connected as client %d, role %s, master %s\n", m.ClientID, m.Role, formatMaster(m.MasterClientID))
			if m.MasterToken != nil {
				c.setToken(*m.MasterToken)
			}
		case domain.RoleChanged:
			fmt.Printf("role changed to %s, master %s\n", m.NewRole, formatMaster(m.MasterClientID))
			switch {
			case m.MasterToken != nil:
				c.setToken(*m.MasterToken)
			case m.ClearToken != nil && *m.ClearToken:
				c.setToken("")
			}
		case domain.GameState:
			printBoard(m.BoardData)
		default:
			fmt.Printf("unexpected message type %s\n", msg.MessageType())
		}
	}
}

// handleInput turns stdin lines into commands: "release" gives up the seat, "token" prints the
// saved master token, and a JSON object is sent as the new scoreboard.
func (c *client) handleInput() {
	for c.scanner.Scan() {
		line := strings.TrimSpace(c.scanner.Text())
		var err error
		switch {
		case line == "":
			continue
		case line == "release":
			err = c.write(domain.NewReleaseMaster())
		case line == "token":
			fmt.Printf("master token: %q\n", c.getToken())
		case strings.HasPrefix(line, "{"):
			var board domain.Scoreboard
			board, err = utils.UnmarshalJson[domain.Scoreboard]([]byte(line))
			if err == nil {
				err = c.write(domain.NewGameStateUpdate(board))
			}
		default:
			fmt.Println("commands: release, token, or a scoreboard json object")
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (c *client) setToken(token string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = token
}

func (c *client) getToken() string {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	return c.token
}

func formatMaster(id *domain.ConnectionID) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}

func printBoard(b domain.Scoreboard) {
	fmt.Printf("%s | inning %d | %s %d - %d %s\n",
		b.GameTitle, b.GameInning, b.TeamTop, b.ScoreTop, b.ScoreBottom, b.TeamBottom)
}
