// Пакет qrstore — операции с PNG-файлами QR-кодов на диске.
// Плоская директория без поддиректорий и sidecar-файлов: директория —
// единственный источник истины о состоянии ресурсов.
package qrstore

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Extension — расширение файлов QR-кодов.
const Extension = ".png"

var (
	// ErrExists — файл уже существует (Generate на занятое имя).
	ErrExists = errors.New("QR-код уже существует")
	// ErrNotFound — файл не найден.
	ErrNotFound = errors.New("QR-код не найден")
	// ErrInvalidName — имя файла не является безопасным компонентом пути.
	ErrInvalidName = errors.New("недопустимое имя файла")
)

// Store — файловое хранилище QR-кодов.
type Store struct {
	// dir — корневая директория хранения (QR_DATA_DIR)
	dir string
	// fill — цвет модулей QR-кода
	fill color.Color
	// back — цвет фона
	back color.Color
}

// New создаёт Store, создавая директорию при необходимости.
func New(dir string, fill, back color.Color) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dir, err)
	}

	return &Store{dir: dir, fill: fill, back: back}, nil
}

// Generate рендерит QR-код для url и записывает PNG размером size×size
// пикселей в файл filename. Создание атомарное: O_CREATE|O_EXCL закрывает
// гонку «проверка существования — запись». Возвращает ErrExists, если файл
// уже существует.
func (s *Store) Generate(url, filename string, size int) error {
	if !ValidFilename(filename) {
		return ErrInvalidName
	}

	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("ошибка построения QR-кода: %w", err)
	}
	qr.ForegroundColor = s.fill
	qr.BackgroundColor = s.back

	data, err := qr.PNG(size)
	if err != nil {
		return fmt.Errorf("ошибка рендеринга PNG: %w", err)
	}

	fullPath := filepath.Join(s.dir, filename)
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("ошибка создания файла %s: %w", filename, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(fullPath)
		return fmt.Errorf("ошибка записи PNG: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(fullPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	return nil
}

// List возвращает имена PNG-файлов директории, отсортированные по имени.
// Сортировка фиксирована для детерминированных листингов.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}

// Open открывает файл для чтения. Вызывающий код обязан закрыть файл.
// Возвращает ErrNotFound, если файл отсутствует.
func (s *Store) Open(filename string) (*os.File, error) {
	if !ValidFilename(filename) {
		return nil, ErrInvalidName
	}

	f, err := os.Open(filepath.Join(s.dir, filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", filename, err)
	}

	return f, nil
}

// Exists проверяет существование файла.
func (s *Store) Exists(filename string) bool {
	if !ValidFilename(filename) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, filename))
	return err == nil
}

// Delete удаляет файл. Возвращает ErrNotFound, если файл отсутствует —
// проигравший гонку удаления получает NotFound, а не сбой.
func (s *Store) Delete(filename string) error {
	if !ValidFilename(filename) {
		return ErrInvalidName
	}

	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка удаления файла %s: %w", filename, err)
	}

	return nil
}

// Dir возвращает путь к директории данных.
func (s *Store) Dir() string {
	return s.dir
}

// ValidFilename проверяет, что имя — безопасный компонент пути:
// непустое, без разделителей и без выхода из директории.
func ValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}
