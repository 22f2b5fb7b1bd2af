package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kseng/restaurant-system/internal/model"
	"github.com/kseng/restaurant-system/internal/validation"
)

// AddMenuItem добавляет позицию меню. Изображение копируется в каталог
// изображений под uuid-именем; неудачное копирование не блокирует запись.
func (s *Service) AddMenuItem(ctx context.Context, name string, unitPrice decimal.Decimal, imageSource string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, ErrEmptyName
	}
	if !validation.IsValidPrice(unitPrice) {
		return 0, ErrInvalidPrice
	}

	image := s.storeImage(imageSource)

	return s.repo.CreateMenuItem(ctx, name, unitPrice, image)
}

// UpdateMenuItem обновляет позицию меню. Пустой путь к изображению
// оставляет прежнее изображение без изменений.
func (s *Service) UpdateMenuItem(ctx context.Context, id int64, name string, unitPrice decimal.Decimal, imageSource string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if !validation.IsValidPrice(unitPrice) {
		return ErrInvalidPrice
	}

	existing, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return err
	}

	image := existing.Image
	if imageSource != "" {
		if stored := s.storeImage(imageSource); stored != "" {
			image = stored
		}
	}

	return s.repo.UpdateMenuItem(ctx, id, name, unitPrice, image)
}

// DeleteMenuItem удаляет позицию меню. Позиции, на которые ссылаются
// строки заказов, удалить нельзя.
func (s *Service) DeleteMenuItem(ctx context.Context, id int64) error {
	return s.repo.DeleteMenuItem(ctx, id)
}

// ListMenuItems возвращает все позиции меню.
func (s *Service) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	return s.repo.ListMenuItems(ctx)
}

// AddTable регистрирует столик с уникальным номером.
func (s *Service) AddTable(ctx context.Context, number int, description string) error {
	if !validation.IsValidTableNumber(number) {
		return ErrInvalidTableNumber
	}
	return s.repo.CreateTable(ctx, number, description)
}

// UpdateTable обновляет описание столика.
func (s *Service) UpdateTable(ctx context.Context, number int, description string) error {
	return s.repo.UpdateTable(ctx, number, description)
}

// DeleteTable удаляет столик без открытых заказов и бронирований.
func (s *Service) DeleteTable(ctx context.Context, number int) error {
	return s.repo.DeleteTable(ctx, number)
}

// ListTables возвращает все столики.
func (s *Service) ListTables(ctx context.Context) ([]model.Table, error) {
	return s.repo.ListTables(ctx)
}

// ListTableNumbers возвращает номера всех столиков.
func (s *Service) ListTableNumbers(ctx context.Context) ([]int, error) {
	tables, err := s.repo.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	numbers := make([]int, 0, len(tables))
	for _, t := range tables {
		numbers = append(numbers, t.Number)
	}
	return numbers, nil
}

// storeImage копирует файл изображения в каталог изображений под uuid-именем
// и возвращает новое имя. Копирование — необязательный побочный эффект:
// при ошибке пишется предупреждение и возвращается пустая строка.
func (s *Service) storeImage(source string) string {
	if source == "" {
		return ""
	}

	if err := os.MkdirAll(s.imageDir, 0o755); err != nil {
		s.logger.Warn("create image dir", zap.String("dir", s.imageDir), zap.Error(err))
		return ""
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(source))

	if err := copyFile(source, filepath.Join(s.imageDir, name)); err != nil {
		s.logger.Warn("copy image", zap.String("source", source), zap.Error(err))
		return ""
	}

	return name
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy: %w", err)
	}

	return out.Close()
}
