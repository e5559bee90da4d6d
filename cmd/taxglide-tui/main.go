package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taxglide/taxglide/internal/tui"
)

func main() {
	configPath := "taxglide.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Error: config file not found: %s\n", configPath)
		os.Exit(1)
	}

	p := tea.NewProgram(tui.NewModel(configPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
