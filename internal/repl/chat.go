package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/apexion-ai/mcpcli/internal/provider"
	"github.com/apexion-ai/mcpcli/internal/session"
)

// shownOnReopen is how many earlier messages are replayed when an existing
// session is opened for chat.
const shownOnReopen = 5

var chatModels = []string{LabelClaude, LabelGemini}

func defaultSessionName(now time.Time) string {
	return "Chat " + now.Format("2006-01-02 15:04:05")
}

func sessionLabel(s session.ChatSession) string {
	return fmt.Sprintf("%s (%s) - %d messages", s.Name, s.Created().Format("2006-01-02 15:04"), len(s.Messages))
}

// cmdChat runs a conversation against the active session, choosing or
// creating one first when none is active.
func (a *App) cmdChat(ctx context.Context, _ string) error {
	if _, ok := a.store.ActiveSessionID(); !ok {
		if err := a.chooseSession(); err != nil {
			return err
		}
	}

	choice, err := a.io.Choose("Which AI model do you want to use?", chatModels)
	if err != nil {
		return err
	}
	label := chatModels[choice]
	a.io.Info(fmt.Sprintf("Chatting with %s. Type 'exit' to leave the chat.", label))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := a.io.ReadLine("You: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "exit") {
			a.io.Info("Left the chat.")
			return nil
		}
		if line == "" {
			continue
		}
		a.chatTurn(ctx, label, line)
	}
}

// chatTurn sends one line with the session context. The user line and the
// reply are recorded only when the call succeeds, user first.
func (a *App) chatTurn(ctx context.Context, label, line string) {
	history := toProviderMessages(a.store.ContextForModel(a.contextMessages))

	a.io.Thinking(label)
	res := a.callModel(ctx, label, line, history)
	if res.IsError() {
		// An interrupt ends the chat loop, which reports it.
		if ctx.Err() != nil {
			return
		}
		a.io.Error(fmt.Sprintf("%s error: %s", label, res.Text()))
		return
	}
	a.io.AIResponse(label, res.Text())

	a.store.AddMessage(session.ChatMessage{Role: session.RoleUser, Content: line})
	a.store.AddMessage(session.ChatMessage{Role: session.RoleAssistant, Content: res.Text(), Model: label})
}

func toProviderMessages(msgs []session.ContextMessage) []provider.Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]provider.Message, len(msgs))
	for i, m := range msgs {
		out[i] = provider.Message{Role: provider.Role(m.Role), Content: m.Content}
	}
	return out
}

// chooseSession creates a new session or activates an existing one.
func (a *App) chooseSession() error {
	choice, err := a.io.Choose("Chat session:", []string{"Start a new chat session", "Open an existing session"})
	if err != nil {
		return err
	}
	def := defaultSessionName(time.Now())

	if choice == 0 {
		name, err := a.io.ReadLine(fmt.Sprintf("Session name [%s]: ", def))
		if err != nil {
			return err
		}
		if name = strings.TrimSpace(name); name == "" {
			name = def
		}
		a.store.CreateSession(name)
		a.io.Success("New chat session started: " + name)
		return nil
	}

	sessions := a.store.ListSessions()
	if len(sessions) == 0 {
		a.io.Info("No saved chat sessions. Starting a new one.")
		a.store.CreateSession(def)
		return nil
	}

	labels := make([]string, len(sessions))
	for i, s := range sessions {
		labels[i] = sessionLabel(s)
	}
	idx, err := a.io.Choose("Select a session:", labels)
	if err != nil {
		return err
	}
	picked := sessions[idx]
	a.store.SetActiveSession(picked.ID)
	a.io.Success("Chat session opened: " + picked.Name)
	a.showRecent(picked.Messages)
	return nil
}

func (a *App) showRecent(msgs []session.ChatMessage) {
	if len(msgs) == 0 {
		return
	}
	if len(msgs) > shownOnReopen {
		msgs = msgs[len(msgs)-shownOnReopen:]
	}
	a.io.Info("Previous messages:")
	for _, m := range msgs {
		switch m.Role {
		case session.RoleUser:
			a.io.Print("\nYou:\n" + m.Content)
		case session.RoleAssistant:
			who := m.Model
			if who == "" {
				who = "AI"
			}
			a.io.Print("\n" + who + ":\n" + m.Content)
		}
	}
}

// cmdSessions lists saved sessions and opens or deletes one.
func (a *App) cmdSessions(_ context.Context, _ string) error {
	sessions := a.store.ListSessions()
	if len(sessions) == 0 {
		a.io.Info("No saved chat sessions.")
		return nil
	}

	a.io.Info("Chat sessions:")
	opts := make([]string, 0, len(sessions)+2)
	for _, s := range sessions {
		opts = append(opts, sessionLabel(s))
	}
	deleteIdx := len(opts)
	opts = append(opts, "Delete a session", "Cancel")

	choice, err := a.io.Choose("Select a chat session:", opts)
	if err != nil {
		return err
	}
	switch {
	case choice < deleteIdx:
		a.store.SetActiveSession(sessions[choice].ID)
		a.io.Success("Session activated. Use 'chat' to continue the conversation.")
		return nil
	case choice == deleteIdx:
		return a.deleteSession(sessions)
	default:
		return nil
	}
}

func (a *App) deleteSession(sessions []session.ChatSession) error {
	names := make([]string, len(sessions))
	for i, s := range sessions {
		names[i] = fmt.Sprintf("%s (%s)", s.Name, s.Created().Format("2006-01-02 15:04"))
	}
	idx, err := a.io.Choose("Select the session to delete:", names)
	if err != nil {
		return err
	}
	ok, err := a.io.Confirm("Are you sure you want to delete this session?", false)
	if err != nil {
		return err
	}
	if !ok {
		a.io.Info("Delete cancelled.")
		return nil
	}
	if !a.store.DeleteSession(sessions[idx].ID) {
		return fmt.Errorf("session %s no longer exists", sessions[idx].ID)
	}
	a.io.Success("Session deleted.")
	return nil
}
