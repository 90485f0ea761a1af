package tui

import (
	"fmt"
	"strings"
)

// slashCommand is one parsed "/name arg" line from the chat input.
type slashCommand struct {
	name string
	arg  string
}

// chatCommands lists the recognised commands and their help text, in the
// order shown by /help.
var chatCommands = []struct {
	name, usage, help string
}{
	{"prompt", "/prompt", "ask the companion for a conversation starter"},
	{"listen", "/listen", "start or stop listening to the microphone"},
	{"food", "/food <item>", "add something you are eating"},
	{"unfood", "/unfood <item>", "remove a food item"},
	{"note", "/note <text>", "replace the meal's notes"},
	{"rate", "/rate <1-5>", "rate how mindful the meal felt"},
	{"end", "/end", "finish the meal and show its summary"},
	{"new", "/new", "start another meal after the summary"},
	{"companion", "/companion <name>", "choose who joins the next meal"},
	{"help", "/help", "list commands"},
	{"quit", "/quit", "leave (ends the current meal first)"},
}

// parseCommand splits a line starting with "/" into a command name and its
// argument. ok is false for plain chat text.
func parseCommand(line string) (cmd slashCommand, ok bool, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return slashCommand{}, false, nil
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	name = strings.ToLower(name)
	for _, c := range chatCommands {
		if c.name == name {
			return slashCommand{name: name, arg: strings.TrimSpace(arg)}, true, nil
		}
	}
	return slashCommand{}, true, fmt.Errorf("unknown command /%s (try /help)", name)
}

func commandHelp() string {
	var sb strings.Builder
	for _, c := range chatCommands {
		fmt.Fprintf(&sb, "  %-18s %s\n", c.usage, c.help)
	}
	return sb.String()
}
