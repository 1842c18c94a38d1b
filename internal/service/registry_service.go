package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-orz/orz"
	"github.com/google/uuid"
	"github.com/stevedore-dev/stevedore/internal/models"
	"github.com/stevedore-dev/stevedore/internal/repo"
	"github.com/stevedore-dev/stevedore/internal/validation"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RegistryService 镜像仓库配置服务
type RegistryService struct {
	logger *zap.Logger
	*orz.Service
	registryRepo *repo.RegistryRepo
	validator    *validation.Validator
}

func NewRegistryService(logger *zap.Logger, db *gorm.DB, validator *validation.Validator) *RegistryService {
	return &RegistryService{
		logger:       logger,
		Service:      orz.NewService(db),
		registryRepo: repo.NewRegistryRepo(db),
		validator:    validator,
	}
}

// RegistryRequest 创建/更新镜像仓库的请求
type RegistryRequest struct {
	Name     string   `json:"name" validate:"required,min=1,max=64"`
	URL      string   `json:"url" validate:"required,url"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Insecure bool     `json:"insecure"`
	Tags     []string `json:"tags"`
}

// Create 创建镜像仓库配置
func (s *RegistryService) Create(ctx context.Context, req *RegistryRequest) (*models.Registry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	registry := &models.Registry{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		URL:       strings.TrimSpace(req.URL),
		Username:  req.Username,
		Password:  req.Password,
		Insecure:  req.Insecure,
		Tags:      datatypes.JSONSlice[string](req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 名称唯一性检查和写入放在同一事务里
	err := s.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.registryRepo.FindAll(ctx)
		if err != nil {
			return err
		}
		for _, item := range existing {
			if item.Name == registry.Name {
				return fmt.Errorf("仓库名称已存在: %s", registry.Name)
			}
		}
		return s.registryRepo.Create(ctx, registry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("镜像仓库已创建",
		zap.String("registryId", registry.ID),
		zap.String("name", registry.Name))
	return registry, nil
}

// Update 更新镜像仓库配置
func (s *RegistryService) Update(ctx context.Context, id string, req *RegistryRequest) (*models.Registry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	registry, err := s.registryRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}

	registry.Name = strings.TrimSpace(req.Name)
	registry.URL = strings.TrimSpace(req.URL)
	registry.Username = req.Username
	// 密码为空表示保持不变
	if req.Password != "" {
		registry.Password = req.Password
	}
	registry.Insecure = req.Insecure
	registry.Tags = datatypes.JSONSlice[string](req.Tags)
	registry.UpdatedAt = time.Now().UnixMilli()

	if err := s.registryRepo.Save(ctx, &registry); err != nil {
		return nil, err
	}
	return &registry, nil
}

// Delete 删除镜像仓库配置
func (s *RegistryService) Delete(ctx context.Context, id string) error {
	if err := s.registryRepo.DeleteById(ctx, id); err != nil {
		return err
	}
	s.logger.Info("镜像仓库已删除", zap.String("registryId", id))
	return nil
}

// List 列出全部镜像仓库配置
func (s *RegistryService) List(ctx context.Context) ([]models.Registry, error) {
	return s.registryRepo.FindAll(ctx)
}

// Get 获取单个镜像仓库配置
func (s *RegistryService) Get(ctx context.Context, id string) (*models.Registry, error) {
	registry, err := s.registryRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	return &registry, nil
}
