package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"

	"chatd/client"
)

const dialTimeout = 10 * time.Second

type BaseChatSuite struct {
	suite.Suite
	Config Config
	log    *slog.Logger
}

// SetupSuite loads the environment configuration before running tests and
// skips the whole suite when no server is configured.
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)

	if s.Config.ServerURL == "" {
		s.T().Skip("CHAT_SERVER_URL not set, skipping chat scenarios")
	}
}

// Connect opens a dedicated client connection for one scenario step and
// prints a colorized header for it in the logs.
func (s *BaseChatSuite) Connect(name string) *client.ChatClient {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	cli, err := client.Dial(ctx, s.Config.ServerURL, s.log)
	s.Require().NoError(err, "Failed to connect to chat server at "+s.Config.ServerURL)
	s.T().Cleanup(func() { _ = cli.Disconnect() })
	return cli
}

// UniqueName avoids collisions when scenarios run against a shared server.
func (s *BaseChatSuite) UniqueName(prefix string) string {
	return fmt.Sprintf("%.4s-%.5s", prefix, uuid.New().String())
}
