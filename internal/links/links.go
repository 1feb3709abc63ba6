// Пакет links — построение hypermedia-набора ссылок для API-ответов.
// Чистые функции без побочных эффектов: все URL выводятся конкатенацией
// базового URL, фиксированного пути ресурса и имени файла.
package links

import (
	"strings"

	"github.com/bigkaa/qrstore/internal/domain/model"
)

// resourcePath — фиксированный путь коллекции QR-кодов в API.
const resourcePath = "/qr-codes/"

// Операции, для которых строится набор ссылок.
const (
	OpCreate   = "create"
	OpList     = "list"
	OpRetrieve = "retrieve"
	OpDelete   = "delete"
)

// Build возвращает упорядоченный набор именованных ссылок для операции op
// над файлом filename. Для create/list ссылка self указывает на коллекцию,
// для retrieve/delete — на сам ресурс.
func Build(op, filename, baseURL, downloadURL string) []model.Link {
	base := strings.TrimRight(baseURL, "/")
	collection := base + resourcePath
	resource := collection + filename

	self := collection
	if op == OpRetrieve || op == OpDelete {
		self = resource
	}

	return []model.Link{
		{Rel: "self", Href: self},
		{Rel: "download", Href: downloadURL},
		{Rel: "create", Href: collection},
		{Rel: "list", Href: collection},
		{Rel: "delete", Href: resource},
	}
}
