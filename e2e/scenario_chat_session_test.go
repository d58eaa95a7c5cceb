package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"chatd/client"
	"chatd/domain"
	"chatd/errors"
)

type testChatSessionSuite struct {
	BaseChatSuite
}

func TestChatSessionSuite(t *testing.T) {
	suite.Run(t, &testChatSessionSuite{})
}

func (s *testChatSessionSuite) TestFullChatSessionFlow() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	aliceName := s.UniqueName("alic")
	bobName := s.UniqueName("bobb")
	roomName := s.UniqueName("room")

	var alice, bob *client.ChatClient

	// --- STEP 0: LOGIN ---
	s.Run("Step 0: Two users log in with unique names", func() {
		alice = s.Connect("alice connects")
		bob = s.Connect("bob connects")

		s.Require().NoError(alice.Login(ctx, aliceName))
		s.Require().NoError(bob.Login(ctx, bobName))

		// A third connection cannot steal an already-taken name
		intruder := s.Connect("intruder connects")
		s.Require().ErrorIs(intruder.Login(ctx, aliceName), errors.ErrLoginConflict)

		users, err := alice.ListUsers(ctx)
		s.Require().NoError(err)
		s.Require().Contains(users, aliceName)
		s.Require().Contains(users, bobName)
	})

	// --- STEP 1: PUBLIC BROADCAST ---
	s.Run("Step 1: A public post reaches every other user", func() {
		count, err := alice.Post(ctx, "hello everyone", domain.PublicRoomName)
		s.Require().NoError(err)
		s.Require().GreaterOrEqual(count, 1)

		n, err := bob.NextMessage(ctx)
		s.Require().NoError(err)
		s.Require().Equal(aliceName, n.From)
		s.Require().Equal("hello everyone", n.Text)
	})

	// --- STEP 2: PRIVATE ROOM ---
	s.Run("Step 2: Private room creation, membership and posting", func() {
		s.Require().NoError(alice.CreateRoom(ctx, roomName, "scenario room"))

		// Bob must join before he can post
		_, err := bob.Post(ctx, "knock", roomName)
		s.Require().ErrorIs(err, errors.ErrNotMember)
		s.Require().NoError(bob.JoinRoom(ctx, roomName))

		count, err := bob.Post(ctx, "inside", roomName)
		s.Require().NoError(err)
		s.Require().Equal(1, count)

		n, err := alice.NextMessage(ctx)
		s.Require().NoError(err)
		s.Require().Equal(bobName, n.From)
		s.Require().Equal("inside", n.Text)
	})

	// --- STEP 3: DIRECT MESSAGE ---
	s.Run("Step 3: Direct messages reach exactly one user", func() {
		s.Require().NoError(alice.DirectMessage(ctx, bobName, "just for you"))

		n, err := bob.NextMessage(ctx)
		s.Require().NoError(err)
		s.Require().Equal(aliceName, n.From)
		s.Require().Equal("just for you", n.Text)

		s.Require().ErrorIs(alice.DirectMessage(ctx, aliceName, "me"), errors.ErrSelfMessage)
	})

	// --- STEP 4: DISCONNECT ---
	s.Run("Step 4: Disconnecting frees the login name", func() {
		s.Require().NoError(alice.Disconnect())

		s.Require().Eventually(func() bool {
			users, err := bob.ListUsers(ctx)
			if err != nil {
				return false
			}
			for _, u := range users {
				if u == aliceName {
					return false
				}
			}
			return true
		}, 10*time.Second, 500*time.Millisecond, "Departed user still listed after timeout")

		successor := s.Connect("successor connects")
		s.Require().NoError(successor.Login(ctx, aliceName))
	})
}
