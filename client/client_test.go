package client

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chatd/domain"
	"chatd/errors"
	"chatd/infrastructure/ws"
	"chatd/runtime"
	"chatd/services"
)

// startServer runs the full server stack on an ephemeral port and returns
// the websocket URL to dial.
func startServer(t *testing.T) string {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	sessions := runtime.NewSessionRegistry(log)
	rooms := runtime.NewRoomRegistry(log)
	router := runtime.NewRouter(log, sessions, rooms)
	chat := services.NewChatService(log, sessions, rooms, router)
	server := ws.NewServer(log, chat, "", 16, time.Second)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *ChatClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cli, err := Dial(ctx, url, logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Disconnect() })
	return cli
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestChatClient_LoginAndListUsers(t *testing.T) {
	req := require.New(t)
	url := startServer(t)
	ctx := testCtx(t)

	alice := dial(t, url)
	bob := dial(t, url)

	// Listing is allowed before login
	users, err := alice.ListUsers(ctx)
	req.NoError(err)
	req.Empty(users)

	req.NoError(alice.Login(ctx, "alice"))
	req.NoError(bob.Login(ctx, "bob"))

	// A taken name conflicts, a bound session cannot rebind
	other := dial(t, url)
	req.ErrorIs(other.Login(ctx, "alice"), errors.ErrLoginConflict)
	req.ErrorIs(alice.Login(ctx, "alice2"), errors.ErrAlreadyLoggedIn)

	users, err = other.ListUsers(ctx)
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, users)
}

func TestChatClient_PublicBroadcastScenario(t *testing.T) {
	req := require.New(t)
	url := startServer(t)
	ctx := testCtx(t)

	alice := dial(t, url)
	bob := dial(t, url)
	req.NoError(alice.Login(ctx, "alice"))
	req.NoError(bob.Login(ctx, "bob"))

	// When alice posts "hi" to public
	count, err := alice.Post(ctx, "hi", domain.PublicRoomName)
	req.NoError(err)
	req.Equal(1, count)

	// Then bob's next notification is {from: alice, text: hi}
	n, err := bob.NextMessage(ctx)
	req.NoError(err)
	req.Equal("alice", n.From)
	req.Equal("hi", n.Text)

	// And alice receives nothing from her own post
	shortCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = alice.NextMessage(shortCtx)
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestChatClient_DirectMessageScenario(t *testing.T) {
	req := require.New(t)
	url := startServer(t)
	ctx := testCtx(t)

	alice := dial(t, url)
	bob := dial(t, url)
	carol := dial(t, url)
	req.NoError(alice.Login(ctx, "alice"))
	req.NoError(bob.Login(ctx, "bob"))
	req.NoError(carol.Login(ctx, "carol"))

	// When alice DMs bob a secret
	req.NoError(alice.DirectMessage(ctx, "bob", "secret"))

	// Then bob receives it and carol does not
	n, err := bob.NextMessage(ctx)
	req.NoError(err)
	req.Equal("alice", n.From)
	req.Equal("secret", n.Text)

	shortCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = carol.NextMessage(shortCtx)
	req.ErrorIs(err, context.DeadlineExceeded)

	// Messaging yourself and unknown users is refused
	req.ErrorIs(alice.DirectMessage(ctx, "alice", "x"), errors.ErrSelfMessage)
	req.ErrorIs(alice.DirectMessage(ctx, "ghost", "x"), errors.ErrUserNotFound)
}

func TestChatClient_RoomLifecycle(t *testing.T) {
	req := require.New(t)
	url := startServer(t)
	ctx := testCtx(t)

	alice := dial(t, url)
	bob := dial(t, url)
	req.NoError(alice.Login(ctx, "alice"))
	req.NoError(bob.Login(ctx, "bob"))

	// Room creation is validated server-side
	req.ErrorIs(alice.CreateRoom(ctx, "toolongname!", "x"), errors.ErrInvalidName)
	req.NoError(alice.CreateRoom(ctx, "lobby", "desc"))
	req.ErrorIs(bob.CreateRoom(ctx, "lobby", "again"), errors.ErrRoomExists)

	rooms, err := bob.ListRooms(ctx)
	req.NoError(err)
	req.Len(rooms, 2)
	req.Equal(domain.PublicRoomName, rooms[0].Name)
	req.Equal("lobby", rooms[1].Name)
	req.Equal("alice", rooms[1].Owner)
	req.Equal("desc", rooms[1].Description)

	// Posting requires membership; joining fixes that
	_, err = bob.Post(ctx, "knock", "lobby")
	req.ErrorIs(err, errors.ErrNotMember)
	req.NoError(bob.JoinRoom(ctx, "lobby"))

	count, err := bob.Post(ctx, "knock", "lobby")
	req.NoError(err)
	req.Equal(1, count)

	n, err := alice.NextMessage(ctx)
	req.NoError(err)
	req.Equal("bob", n.From)
	req.Equal("knock", n.Text)

	// Leaving rules
	req.ErrorIs(bob.LeaveRoom(ctx, domain.PublicRoomName), errors.ErrCannotLeavePublic)
	req.NoError(bob.LeaveRoom(ctx, "lobby"))
	req.ErrorIs(bob.LeaveRoom(ctx, "lobby"), errors.ErrNotMember)
	req.ErrorIs(bob.LeaveRoom(ctx, "nowhere"), errors.ErrRoomNotFound)
}

func TestChatClient_PreLoginGate(t *testing.T) {
	req := require.New(t)
	url := startServer(t)
	ctx := testCtx(t)

	anon := dial(t, url)

	// Listings work, mutations are gated
	_, err := anon.ListRooms(ctx)
	req.NoError(err)
	req.ErrorIs(anon.CreateRoom(ctx, "lobby", "x"), errors.ErrNotAuthenticated)
	_, err = anon.Post(ctx, "hi", domain.PublicRoomName)
	req.ErrorIs(err, errors.ErrNotAuthenticated)
}

func TestChatClient_DisconnectSemantics(t *testing.T) {
	req := require.New(t)
	url := startServer(t)
	ctx := testCtx(t)

	alice := dial(t, url)
	bob := dial(t, url)
	req.NoError(alice.Login(ctx, "alice"))
	req.NoError(bob.Login(ctx, "bob"))

	// When alice disconnects
	req.NoError(alice.Disconnect())

	// Then every further operation fails with NotConnected
	req.ErrorIs(alice.Disconnect(), errors.ErrNotConnected)
	req.ErrorIs(alice.Login(ctx, "alice"), errors.ErrNotConnected)
	_, err := alice.ListUsers(ctx)
	req.ErrorIs(err, errors.ErrNotConnected)
	_, err = alice.NextMessage(ctx)
	req.ErrorIs(err, errors.ErrNotConnected)

	// And the server eventually forgets her session entirely
	req.Eventually(func() bool {
		users, err := bob.ListUsers(ctx)
		return err == nil && len(users) == 1 && users[0] == "bob"
	}, 2*time.Second, 50*time.Millisecond)

	// Her name is free again for a newcomer
	carol := dial(t, url)
	req.NoError(carol.Login(ctx, "alice"))
}

func TestChatClient_ConcurrentDisconnect_SingleWinner(t *testing.T) {
	req := require.New(t)
	url := startServer(t)
	ctx := testCtx(t)

	cli := dial(t, url)
	req.NoError(cli.Login(ctx, "alice"))

	// When many goroutines race to disconnect the same client
	const callers = 8
	results := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cli.Disconnect()
		}(i)
	}
	wg.Wait()

	// Then exactly one call succeeds and the rest report NotConnected
	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			req.ErrorIs(err, errors.ErrNotConnected)
		}
	}
	req.Equal(1, winners)
}

func TestChatClient_NotificationOrderIsFIFO(t *testing.T) {
	req := require.New(t)
	url := startServer(t)
	ctx := testCtx(t)

	alice := dial(t, url)
	bob := dial(t, url)
	req.NoError(alice.Login(ctx, "alice"))
	req.NoError(bob.Login(ctx, "bob"))

	for _, text := range []string{"one", "two", "three"} {
		_, err := alice.Post(ctx, text, domain.PublicRoomName)
		req.NoError(err)
	}

	for _, want := range []string{"one", "two", "three"} {
		n, err := bob.NextMessage(ctx)
		req.NoError(err)
		req.Equal(want, n.Text)
	}
}
