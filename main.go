// askdesk TUI - A terminal client for the askdesk retrieval-augmented
// chat assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/jeranaias/askdesk-tui/internal/api"
	"github.com/jeranaias/askdesk-tui/internal/config"
	"github.com/jeranaias/askdesk-tui/internal/session"
	"github.com/jeranaias/askdesk-tui/internal/storage"
	"github.com/jeranaias/askdesk-tui/internal/ui/chat"
	"github.com/jeranaias/askdesk-tui/internal/ui/components"
	"github.com/jeranaias/askdesk-tui/internal/ui/mgmt"
	"github.com/jeranaias/askdesk-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	serverURL := flag.String("server", "", "backend base URL (overrides config)")
	userID := flag.String("user", "", "operator id (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("askdesk %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "askdesk requires an interactive terminal")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.BaseURL = *serverURL
	}
	if *userID != "" {
		cfg.User.ID = *userID
	}

	// First run: mint a stable operator id and persist it, so history stays
	// attached to the same identity across restarts.
	if cfg.User.ID == "" {
		cfg.User.ID = uuid.NewString()
		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not persist operator id: %v\n", err)
		}
	}

	// Diagnostics go to stderr; stdout belongs to the TUI.
	log.SetOutput(os.Stderr)

	runTUI(cfg)
}

// runTUI starts the TUI interface.
func runTUI(cfg *config.Config) {
	theme := styles.NewThemeForMode(cfg.UI.Theme)

	client := api.NewClient(cfg.Server.BaseURL, cfg.User.ID).
		WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.Server.MaxRetries)

	var store *storage.Store
	if cfg.Cache.Enabled {
		path, err := cfg.CachePath()
		if err == nil {
			store, err = storage.Open(path)
		}
		if err != nil {
			// The cache is an offline nicety; run without it.
			fmt.Fprintf(os.Stderr, "Warning: conversation cache disabled: %v\n", err)
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
	}

	m := newApp(cfg, theme, client, store)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Hot-reload the config file; theme changes apply without restart.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if path, err := config.ConfigPath(); err == nil {
		go func() {
			_ = config.Watch(watchCtx, path, func(next *config.Config) {
				p.Send(configReloadedMsg{cfg: next})
			})
		}()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running askdesk: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// View identifies the active top-level surface.
type View int

const (
	ViewChat View = iota // Conversation view with sidebar
	ViewMgmt             // Management console
)

// configReloadedMsg delivers a hot-reloaded configuration.
type configReloadedMsg struct {
	cfg *config.Config
}

// App is the root Bubble Tea model: it owns the sidebar and routes between
// the chat view and the management console.
type App struct {
	view  View
	theme *styles.Theme
	cfg   *config.Config

	width  int
	height int

	client  *api.Client
	store   *storage.Store
	tracker *session.Tracker

	chatModel chat.Model
	mgmtModel mgmt.Model
	sidebar   *components.Sidebar
}

// newApp creates the root application model.
func newApp(cfg *config.Config, theme *styles.Theme, client *api.Client, store *storage.Store) *App {
	tracker := session.NewTracker(cfg.User.ID)
	sidebar := components.NewSidebar(cfg.UI.SidebarWidth)

	// Seed the sidebar from the local cache so the list is visible before
	// the backend answers (or when it is unreachable).
	if store != nil {
		if cached, err := store.List(context.Background()); err == nil {
			sidebar.SetItems(cachedToItems(cached))
		}
	}

	return &App{
		view:      ViewChat,
		theme:     theme,
		cfg:       cfg,
		client:    client,
		store:     store,
		tracker:   tracker,
		chatModel: chat.New(client, tracker, theme),
		mgmtModel: mgmt.New(client, theme),
		sidebar:   sidebar,
	}
}

// Init starts the chat view and the first sidebar refresh.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.chatModel.Init(),
		chat.ListConversationsCmd(a.client),
	)
}

// Update handles messages and routes them to the active view.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.sidebar.SetSize(a.cfg.UI.SidebarWidth, msg.Height-2)
		a.chatModel.SetSize(msg.Width-a.cfg.UI.SidebarWidth-2, msg.Height-2)
		a.mgmtModel.SetSize(msg.Width, msg.Height-2)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case configReloadedMsg:
		return a.applyConfig(msg.cfg)

	case chat.ConversationsLoadedMsg:
		if msg.Err == nil {
			a.setConversations(msg.Conversations)
		}
		return a, nil

	case chat.SessionBoundMsg:
		// A fresh conversation now exists server-side; pull the list so the
		// sidebar (and cache) pick it up.
		return a, chat.ListConversationsCmd(a.client)

	case chat.ConversationDeletedMsg:
		return a.handleConversationDeleted(msg)

	case mgmt.LogsLoadedMsg, mgmt.LogDeletedMsg:
		var cmd tea.Cmd
		a.mgmtModel, cmd = a.mgmtModel.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.chatModel, cmd = a.chatModel.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "tab":
		if a.view == ViewChat {
			a.view = ViewMgmt
			var cmd tea.Cmd
			a.mgmtModel, cmd = a.mgmtModel.Refresh()
			return a, cmd
		}
		a.view = ViewChat
		return a, nil
	}

	if a.view == ViewMgmt {
		var cmd tea.Cmd
		a.mgmtModel, cmd = a.mgmtModel.Update(msg)
		return a, cmd
	}

	// Sidebar shortcuts, active in the chat view.
	switch msg.String() {
	case "ctrl+k":
		a.sidebar.CursorUp()
		return a, nil
	case "ctrl+j":
		a.sidebar.CursorDown()
		return a, nil
	case "ctrl+l":
		if item, ok := a.sidebar.Selected(); ok {
			var cmd tea.Cmd
			a.chatModel, cmd = a.chatModel.LoadConversation(item.SessionID)
			return a, cmd
		}
		return a, nil
	case "ctrl+x":
		if item, ok := a.sidebar.Selected(); ok {
			return a, chat.DeleteConversationCmd(a.client, item.SessionID)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.chatModel, cmd = a.chatModel.Update(msg)
	return a, cmd
}

// applyConfig applies a hot-reloaded configuration. Only presentation
// settings take effect live; server settings apply on next start.
func (a *App) applyConfig(cfg *config.Config) (tea.Model, tea.Cmd) {
	a.cfg = cfg
	a.theme = styles.NewThemeForMode(cfg.UI.Theme)
	a.chatModel.SetTheme(a.theme)
	a.mgmtModel.SetTheme(a.theme)
	if a.width > 0 {
		a.sidebar.SetSize(cfg.UI.SidebarWidth, a.height-2)
		a.chatModel.SetSize(a.width-cfg.UI.SidebarWidth-2, a.height-2)
	}
	return a, nil
}

// setConversations updates the sidebar and mirrors the list into the cache.
func (a *App) setConversations(conversations []api.ConversationInfo) {
	items := make([]components.SidebarItem, 0, len(conversations))
	cached := make([]storage.Conversation, 0, len(conversations))
	for _, c := range conversations {
		items = append(items, components.SidebarItem{
			SessionID: c.SessionID,
			Title:     c.Title,
			UpdatedAt: c.UpdatedAt,
		})
		cached = append(cached, storage.Conversation{
			SessionID: c.SessionID,
			Title:     c.Title,
			UpdatedAt: c.UpdatedAt,
		})
	}
	a.sidebar.SetItems(items)
	a.sidebar.SelectSession(a.tracker.SessionID())

	if a.store != nil {
		if err := a.store.ReplaceAll(context.Background(), cached); err != nil {
			log.Printf("conversation cache refresh failed: %v", err)
		}
	}
}

func (a *App) handleConversationDeleted(msg chat.ConversationDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.chatModel.Toasts().AddError("Delete failed: " + api.MessageOf(msg.Err))
		return a, components.ToastTickCmd()
	}

	if a.store != nil {
		if err := a.store.Delete(context.Background(), msg.SessionID); err != nil {
			log.Printf("conversation cache delete failed: %v", err)
		}
	}

	// Deleting the conversation we are in resets the view to a fresh one.
	if a.tracker.SessionID() == msg.SessionID {
		a.chatModel.NewConversation()
	}
	return a, chat.ListConversationsCmd(a.client)
}

// View renders the active surface.
func (a *App) View() string {
	var content string
	switch a.view {
	case ViewMgmt:
		content = a.mgmtModel.View()
	default:
		content = lipgloss.JoinHorizontal(
			lipgloss.Top,
			a.sidebar.View(a.theme),
			a.chatModel.View(),
		)
	}

	if toasts := a.chatModel.Toasts().Toasts(); len(toasts) > 0 {
		content += "\n" + components.RenderToastStack(toasts, a.width, 0)
	}
	return content
}

func cachedToItems(cached []storage.Conversation) []components.SidebarItem {
	items := make([]components.SidebarItem, 0, len(cached))
	for _, c := range cached {
		items = append(items, components.SidebarItem{
			SessionID: c.SessionID,
			Title:     c.Title,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return items
}
