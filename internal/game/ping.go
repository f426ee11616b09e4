// Package game queries Bedrock game servers with a RakNet unconnected ping.
package game

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/realmtools/realmd/internal/config"
	"github.com/sandertv/go-raknet"
)

// Pong is the decoded unconnected pong payload of a Bedrock server.
type Pong struct {
	MOTD          string
	LevelName     string
	Gamemode      string
	Version       string
	ProtocolID    int
	GamemodeID    int
	PlayersOnline int
	PlayersMax    int
}

// Query sends an unconnected ping over UDP and decodes the pong.
// It returns the live server details or an error if the server is unreachable.
func Query(ctx context.Context, host string, port int, options config.Ping) (*Pong, error) {
	ctx, cancel := context.WithTimeout(ctx, options.Timeout)
	defer cancel()

	data, err := raknet.PingContext(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, errors.Wrap(err, "raknet ping")
	}

	return ParsePong(data)
}

// ParsePong decodes the semicolon-separated pong payload:
// edition;motd;protocol;version;online;max;guid;levelName;gamemode;gamemodeId;...
// Servers may omit trailing fields; those decode to their zero values.
func ParsePong(data []byte) (*Pong, error) {
	fields := strings.Split(string(data), ";")
	if len(fields) < 6 || fields[0] != "MCPE" {
		return nil, errors.Errorf("unexpected pong payload %q", truncate(string(data), 64))
	}

	p := &Pong{
		MOTD:          fields[1],
		ProtocolID:    atoi(fields[2]),
		Version:       fields[3],
		PlayersOnline: atoi(fields[4]),
		PlayersMax:    atoi(fields[5]),
	}

	if len(fields) > 7 {
		p.LevelName = fields[7]
	}
	if len(fields) > 8 {
		p.Gamemode = fields[8]
	}
	if len(fields) > 9 {
		p.GamemodeID = atoi(fields[9])
	}

	return p, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
