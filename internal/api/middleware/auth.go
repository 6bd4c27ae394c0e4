package middleware

import (
	"log"
	"net/http"
	"strings"

	"polybet/pkg/crypto"
)

// mutatingMethods - методы, требующие X-Actor-ID для журнала аудита
var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Auth проверяет Bearer токен админ API.
//
// Токен сравнивается с bcrypt-хешем из конфигурации - сам токен
// на сервере не хранится. Мутирующие запросы дополнительно
// обязаны нести X-Actor-ID: без него команда не попадет в журнал
// аудита, поэтому она отклоняется сразу.
//
// Пустой хеш означает локальную разработку без аутентификации.
func Auth(tokenHash string) func(http.Handler) http.Handler {
	if tokenHash == "" {
		log.Println("auth: ADMIN_TOKEN_HASH not set, admin API is unprotected")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash != "" {
				token := bearerToken(r)
				if token == "" {
					w.Header().Set("WWW-Authenticate", "Bearer")
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				if !crypto.CheckTokenMatch(token, tokenHash) {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}

			if mutatingMethods[r.Method] && r.Header.Get("X-Actor-ID") == "" {
				http.Error(w, "X-Actor-ID header is required", http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken извлекает токен из заголовка Authorization
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
