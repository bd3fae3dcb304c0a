// notify задаёт контракт внешнего коллаборатора доставки уведомлений.
package notify

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/credential-service/internal/pkg/redact"
)

// Notifier отправляет пользователю уведомление о сбросе пароля.
type Notifier interface {
	// SendResetNotice доставляет reset-токен и ссылку на форму сброса.
	SendResetNotice(ctx context.Context, email, token, name string) error
}

// LogNotifier — реализация для local/dev: пишет письмо в лог вместо
// отправки. Токен не маскируется сознательно — это замена консольного
// вывода почтового бэкенда при разработке.
type LogNotifier struct {
	log       *slog.Logger
	resetBase string
}

// NewLogNotifier создаёт лог-нотификатор.
// resetBase — базовый URL формы сброса (может быть пустым).
func NewLogNotifier(log *slog.Logger, resetBase string) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &LogNotifier{log: log, resetBase: resetBase}
}

// SendResetNotice пишет содержимое письма в лог.
func (n *LogNotifier) SendResetNotice(_ context.Context, email, token, name string) error {
	n.log.Info("password_reset_email",
		slog.String("to", redact.Email(email)),
		slog.String("name", name),
		slog.String("token", token),
		slog.String("link", n.resetBase+"?token="+token),
	)

	return nil
}
