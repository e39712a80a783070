package providers

import (
	"github.com/samber/do/v2"

	"github.com/quillapp/quill-server/internal/config"
	"github.com/quillapp/quill-server/internal/logger"
	"github.com/quillapp/quill-server/internal/service"
)

// ProvideTagService provides the tag hierarchy service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, cfg.Limits.MaxHierarchyDepth, log.Logger), nil
}

// ProvideVersionService provides the document version service.
func ProvideVersionService(i do.Injector) (*service.VersionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVersionService(storeHandle.Store, cfg.Limits.VersionRetention, log.Logger), nil
}

// ProvideDocumentService provides the document lifecycle service.
func ProvideDocumentService(i do.Injector) (*service.DocumentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)
	versionService := do.MustInvoke[*service.VersionService](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDocumentService(
		storeHandle.Store,
		tagService,
		versionService,
		searchService,
		cfg.Limits.MaxContentSize,
		log.Logger,
	), nil
}
