package e2e

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const lineTimeout = 5 * time.Second

type BaseChatSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" {
		s.T().Skip("E2E_CHAT_ADDR is not set")
	}
}

func (s *BaseChatSuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Chatter is one connected user.
type Chatter struct {
	s       *BaseChatSuite
	Name    string
	conn    net.Conn
	scanner *bufio.Scanner
}

// Connect opens a session and consumes the welcome banner.
func (s *BaseChatSuite) Connect(name string) *Chatter {
	s.header(s.T(), "Connecting "+name)
	conn, err := net.DialTimeout("tcp", s.Config.ChatAddr, lineTimeout)
	s.Require().NoError(err, "Failed to connect to chat server at "+s.Config.ChatAddr)
	c := &Chatter{s: s, Name: name, conn: conn, scanner: bufio.NewScanner(conn)}
	c.Send(name)
	c.Expect("Welcome to CipherChat, " + name + "!")
	// Capabilities block ends with an empty line
	for {
		if c.Line() == "" {
			break
		}
	}
	return c
}

func (c *Chatter) Send(line string) {
	_, err := fmt.Fprintf(c.conn, "%s\n", line)
	c.s.Require().NoError(err)
}

func (c *Chatter) Line() string {
	c.s.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(lineTimeout)))
	c.s.Require().True(c.scanner.Scan(), "connection of %s ended: %v", c.Name, c.scanner.Err())
	return c.scanner.Text()
}

func (c *Chatter) Expect(line string) {
	c.s.Require().Equal(line, c.Line())
}

// ExpectSuffix checks a chat line while ignoring its timestamp.
func (c *Chatter) ExpectSuffix(suffix string) {
	line := c.Line()
	c.s.Require().True(strings.HasSuffix(line, suffix), "got %q, want suffix %q", line, suffix)
}

func (c *Chatter) Close() {
	_ = c.conn.Close()
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseChatSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	s.header(t, name)

	// Setup JSON marshaler for debugging protobuf messages
	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// WithHealth provides a health client within a contextual test step
func (s *BaseChatSuite) WithHealth(name string, fn func(ctx context.Context, client grpc_health_v1.HealthClient)) {
	if s.Config.HealthAddr == "" {
		s.T().Skip("E2E_HEALTH_ADDR is not set")
	}
	conn := s.GrpcConn(s.T(), name, s.Config.HealthAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fn(ctx, grpc_health_v1.NewHealthClient(conn))
}
