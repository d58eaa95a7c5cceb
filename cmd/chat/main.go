// The chat command is the interactive terminal client. It holds no business
// logic: it renders a numbered menu, calls the chat client's operations, and
// formats their results and error kinds for a human.
package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"chatd/client"
	"chatd/errors"
	"chatd/wire"
)

type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	LogLevel  string `env:"LOG_LEVEL,default=warn"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()
	cli, err := client.Dial(ctx, config.ServerURL, log)
	if err != nil {
		return fmt.Errorf("could not connect to server at %s: %w", config.ServerURL, err)
	}
	color.Green.Printf("connected to %s\n", config.ServerURL)

	// Incoming messages are printed as they arrive, independent of the menu.
	go displayMessages(ctx, cli)

	menu(ctx, cli, bufio.NewReader(os.Stdin))
	return nil
}

func displayMessages(ctx context.Context, cli *client.ChatClient) {
	for {
		n, err := cli.NextMessage(ctx)
		if err != nil {
			return
		}
		color.Cyan.Printf("\n\n\t\tRECEIVED MESSAGE [%s]: %s\n", n.From, n.Text)
	}
}

func menu(ctx context.Context, cli *client.ChatClient, in *bufio.Reader) {
	for {
		fmt.Println()
		fmt.Println("< 1 > closes connection and quits")
		fmt.Println("< 2 > list logged-in users")
		fmt.Println("< 3 > login")
		fmt.Println("< 4 > list rooms")
		fmt.Println("< 5 > post message to a room")
		fmt.Println("< 6 > create private room")
		fmt.Println("< 7 > join private room")
		fmt.Println("< 8 > leave room")
		fmt.Println("< 9 > DM another user")
		choice := prompt(in, "\tchoice: ")

		switch choice {
		case "1":
			if err := cli.Disconnect(); err != nil {
				color.Red.Println("client is not connected ...")
				return
			}
			fmt.Println("disconnected")
			return

		case "2":
			users, err := cli.ListUsers(ctx)
			if err != nil {
				color.Red.Printf("error getting users from server: %v\n", err)
				continue
			}
			fmt.Printf("logged-in users: %s\n", strings.Join(users, ", "))

		case "3":
			name := prompt(in, "enter login-name: ")
			switch err := cli.Login(ctx, name); {
			case err == nil:
				color.Green.Printf("logged-in as %s\n", name)
			case stderrors.Is(err, errors.ErrLoginConflict):
				color.Red.Println("login name already exists, pick another name")
			case stderrors.Is(err, errors.ErrAlreadyLoggedIn):
				color.Red.Println("you are already logged in")
			default:
				color.Red.Printf("error logging in, try again: %v\n", err)
			}

		case "4":
			rooms, err := cli.ListRooms(ctx)
			if err != nil {
				color.Red.Printf("error getting rooms from server: %v\n", err)
				continue
			}
			renderRooms(rooms)

		case "5":
			text := prompt(in, "enter your message: ")
			room := prompt(in, "enter room name (empty for public): ")
			if room == "" {
				room = "public"
			}
			count, err := cli.Post(ctx, text, room)
			if err != nil {
				color.Red.Printf("error posting message: %v\n", err)
				continue
			}
			fmt.Printf("posted to %d user(s)\n", count)

		case "6":
			name := prompt(in, "enter room name: ")
			description := prompt(in, "enter room description: ")
			switch err := cli.CreateRoom(ctx, name, description); {
			case err == nil:
				color.Green.Printf("created room: %s\n", name)
			case stderrors.Is(err, errors.ErrInvalidName):
				color.Red.Println("error! you must enter a name less than 10 characters, with no spaces or special symbols.")
			case stderrors.Is(err, errors.ErrRoomExists):
				color.Red.Println("a room with that name already exists")
			case stderrors.Is(err, errors.ErrNotAuthenticated):
				color.Red.Println("error, you are not logged in. Please log in and try again.")
			default:
				color.Red.Printf("error creating room: %v\n", err)
			}

		case "7":
			name := prompt(in, "enter room name: ")
			if err := cli.JoinRoom(ctx, name); err != nil {
				color.Red.Printf("error joining room: %v\n", err)
				continue
			}
			color.Green.Printf("joined room: %s\n", name)

		case "8":
			name := prompt(in, "enter room name: ")
			switch err := cli.LeaveRoom(ctx, name); {
			case err == nil:
				color.Green.Printf("left room: %s\n", name)
			case stderrors.Is(err, errors.ErrCannotLeavePublic):
				color.Red.Println("you cannot leave the public room, disconnect instead")
			default:
				color.Red.Printf("error leaving room: %v\n", err)
			}

		case "9":
			directMessage(ctx, cli, in)
		}
	}
}

// directMessage mirrors the interactive DM flow: list the users, pick one by
// number, refuse messaging yourself, then send.
func directMessage(ctx context.Context, cli *client.ChatClient, in *bufio.Reader) {
	users, err := cli.ListUsers(ctx)
	if err != nil {
		color.Red.Printf("error getting users from server: %v\n", err)
		return
	}
	if len(users) == 0 {
		fmt.Println("There are no users online.")
		return
	}

	fmt.Println("\n Select a user to message directly.")
	for i, u := range users {
		fmt.Printf("%d) %s\n", i+1, u)
	}
	choice := prompt(in, "Choice: ")
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(users) {
		color.Red.Println("invalid choice")
		return
	}
	recipient := users[idx-1]

	fmt.Printf("Recipient: %s\n", recipient)
	text := prompt(in, "Enter your message: ")
	switch err := cli.DirectMessage(ctx, recipient, text); {
	case err == nil:
		color.Green.Printf("message sent to %s\n", recipient)
	case stderrors.Is(err, errors.ErrSelfMessage):
		color.Red.Println("You can't DM yourself.")
	case stderrors.Is(err, errors.ErrNotAuthenticated):
		color.Red.Println("You must be logged in to DM a user.")
	default:
		color.Red.Printf("error sending message: %v\n", err)
	}
}

func renderRooms(rooms []wire.RoomInfo) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Owner", "Description"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, r := range rooms {
		table.Append([]string{r.Name, r.Owner, r.Description})
	}
	table.Render()
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, err := in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
