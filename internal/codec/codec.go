// Пакет codec — обратимое преобразование URL в токен,
// безопасный для использования в качестве компонента имени файла.
// Инвариант: Decode(Encode(u)) == u для любой валидной строки u.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrMalformedToken — токен не был произведён Encode
// (не декодируется обратно в URL).
var ErrMalformedToken = errors.New("некорректный токен имени файла")

// Encode преобразует произвольный URL в токен без символов,
// недопустимых в именах файлов. Детерминированный: один и тот же URL
// всегда даёт один и тот же токен.
func Encode(url string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(url))
}

// Decode — точная инверсия Encode. Возвращает ErrMalformedToken,
// если токен не мог быть произведён Encode.
func Decode(token string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedToken, err.Error())
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: не является валидной UTF-8 строкой", ErrMalformedToken)
	}
	return string(data), nil
}
