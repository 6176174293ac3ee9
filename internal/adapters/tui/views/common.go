package views

import "toponav/internal/adapters/tui/styles"

// ViewState holds the terminal size and the status message shared by views
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets the status message
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// RenderMessage styles the status message, or returns "" when there is none
func (s *ViewState) RenderMessage() string {
	if s.Message == "" {
		return ""
	}
	if s.MessageErr {
		return styles.ErrorMsg.Render(s.Message)
	}
	return styles.Success.Render(s.Message)
}
