package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ignatzorin/career-compass/internal/discovery"
)

// Feed сигналит циклу bubbletea, что состояние поиска изменилось.
// Сигналы схлопываются: модель при получении читает актуальный снимок сама,
// поэтому порядок уведомлений не важен.
type Feed struct {
	ch chan struct{}
}

func NewFeed() *Feed {
	return &Feed{ch: make(chan struct{}, 1)}
}

// Notify подходит для discovery.WithOnChange. Никогда не блокируется.
func (f *Feed) Notify(discovery.Snapshot) {
	select {
	case f.ch <- struct{}{}:
	default:
	}
}

type searchChangedMsg struct{}

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		<-f.ch
		return searchChangedMsg{}
	}
}
