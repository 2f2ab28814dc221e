package clipboard

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// SetText copies text to the system clipboard, falling back to the xsel
// utility when the primary path fails.
func SetText(text string) error {
	if err := clipboard.WriteAll(text); err == nil {
		return nil
	}
	cmd := exec.Command("xsel", "--clipboard", "--input")
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	return nil
}

// Paste synthesizes Ctrl+V so the fresh clipboard content lands in the
// focused window.
func Paste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	time.Sleep(80 * time.Millisecond)
	return kb.Launching()
}
