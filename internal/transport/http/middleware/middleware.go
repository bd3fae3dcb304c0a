// middleware — набор net/http мидлваров HTTP-слоя: request_id,
// структурное логирование, recover, таймаут запроса, лимитер и
// проверка bearer-токена. Композиция выполняется роутером через
// chi.Router.Use (см. transport/http/router.go).
package middleware

import (
	"net/http"
)

// Middleware — стандартный net/http мидлвар; все конструкторы
// пакета возвращают этот тип.
type Middleware func(http.Handler) http.Handler

// statusWriter оборачивает ResponseWriter, чтобы перехватить статус
// и размер ответа для логирования.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	count, err := w.ResponseWriter.Write(p)
	w.count += count
	return count, err
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}
