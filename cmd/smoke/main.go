package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

var (
	baseURL  = flag.String("base", "http://localhost:3000/api", "API base URL")
	email    = flag.String("email", "usuario@exemplo.com", "local account email")
	password = flag.String("password", "aether", "local account password")
	message  = flag.String("message", "qual a capital da França?", "chat message to send")
	topic    = flag.String("pdf", "", "when set, also asks for a PDF about this topic after login")
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type snapshot struct {
	Loading bool `json:"loading"`
	Turns   []struct {
		Role string `json:"role"`
		Text string `json:"text"`
	} `json:"turns"`
	Auth struct {
		Status string `json:"status"`
	} `json:"auth"`
	Artifacts []struct {
		ID    string `json:"id"`
		Kind  string `json:"kind"`
		Title string `json:"title"`
	} `json:"artifacts"`
}

// Pretty print JSON helper
func prettyPrint(raw json.RawMessage) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (int, *envelope, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, *baseURL+url, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, &env, nil
}

func must(status int, env *envelope, err error) *envelope {
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if status >= 300 {
		color.Red("Status %d: %s", status, env.Message)
		os.Exit(1)
	}
	color.Green("Status: %d %s", status, env.Message)
	return env
}

// waitIdle polls the snapshot until the session stops generating.
func waitIdle(token string) snapshot {
	for {
		env := must(sendRequest("GET", "/sessions/current", token, nil))
		var snap snapshot
		json.Unmarshal(env.Data, &snap)
		if !snap.Loading {
			return snap
		}
		time.Sleep(time.Second)
	}
}

func printTurns(snap snapshot) {
	for _, t := range snap.Turns {
		if t.Role == "user" {
			color.Cyan("  USER: %s", t.Text)
		} else {
			color.White("  AI:   %s", t.Text)
		}
	}
}

func main() {
	flag.Parse()
	color.Cyan("Starting Aether Base API smoke test against %s\n", *baseURL)

	color.Yellow("\n1. Create session")
	env := must(sendRequest("POST", "/sessions", "", nil))
	var session struct {
		Token string `json:"token"`
	}
	json.Unmarshal(env.Data, &session)

	color.Yellow("\n2. Send chat message")
	must(sendRequest("POST", "/chat/send", session.Token, map[string]string{"chat": *message}))
	printTurns(waitIdle(session.Token))

	color.Yellow("\n3. Document mode while logged out (expect 401)")
	status, env, err := sendRequest("POST", "/chat/document-mode", session.Token, nil)
	if err != nil || status != http.StatusUnauthorized {
		color.Red("Unexpected: status=%d err=%v", status, err)
		os.Exit(1)
	}
	color.Green("Status: %d %s", status, env.Message)

	color.Yellow("\n4. Login")
	env = must(sendRequest("POST", "/auth/login", session.Token, map[string]string{"email": *email, "password": *password}))
	prettyPrint(env.Data)

	if *topic != "" {
		color.Yellow("\n5. Request PDF about %q", *topic)
		must(sendRequest("POST", "/chat/send", session.Token, map[string]string{"chat": "criar um pdf sobre " + *topic}))
		printTurns(waitIdle(session.Token))
	}

	color.Yellow("\n6. Library")
	env = must(sendRequest("GET", "/library", session.Token, nil))
	prettyPrint(env.Data)

	color.Green("\nSmoke test finished")
}
