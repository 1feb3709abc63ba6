// Пакет model — доменные модели QR Module.
package model

// Link — элемент hypermedia-набора ссылок в API-ответах.
// Порядок элементов в срезе фиксирован и значим.
type Link struct {
	// Rel — имя отношения (self, download, create, list, delete)
	Rel string `json:"rel"`
	// Href — полный URL
	Href string `json:"href"`
}

// QRCode — ресурс QR-кода. Идентифицируется именем файла,
// детерминированно выведенным из исходного URL.
type QRCode struct {
	// Filename — имя PNG-файла в директории хранения (<encoded-url>.png)
	Filename string
	// SourceURL — исходный URL, закодированный в QR-коде
	SourceURL string
	// DownloadURL — публичный URL для скачивания PNG
	DownloadURL string
	// Links — hypermedia-набор ссылок для текущей операции
	Links []Link
}
