package ghcr

const (
	containerPackageTypeConstant = "container"
)

// PackageSummary is one entry of the owner package listing.
type PackageSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PackageType  string `json:"package_type"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	HTMLURL      string `json:"html_url"`
	URL          string `json:"url"`
	Visibility   string `json:"visibility"`
	VersionCount *int64 `json:"version_count,omitempty"`
}

// PackageVersion is one tagged or untagged build of a container package.
type PackageVersion struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	URL         string           `json:"url,omitempty"`
	HTMLURL     string           `json:"html_url,omitempty"`
	Description *string          `json:"description,omitempty"`
	License     *string          `json:"license,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
	DeletedAt   *string          `json:"deleted_at,omitempty"`
	Metadata    *VersionMetadata `json:"metadata,omitempty"`
}

// VersionMetadata carries the package type specific details of a version.
type VersionMetadata struct {
	PackageType string             `json:"package_type"`
	Container   *ContainerMetadata `json:"container,omitempty"`
	Docker      *DockerMetadata    `json:"docker,omitempty"`
}

// ContainerMetadata lists the image tags pointing at a container version.
// Tags is nil when the API sent null or omitted the key.
type ContainerMetadata struct {
	Tags []string `json:"tags"`
}

// DockerMetadata is the legacy docker registry shape. It never marks a version as dangling.
type DockerMetadata struct {
	Tag []string `json:"tag,omitempty"`
}

// IsDangling reports whether the version is a container version with an explicit
// empty tag list. Missing metadata, other package types, a missing container
// section, and null or absent tags are never dangling.
func (version PackageVersion) IsDangling() bool {
	return version.Metadata.isDangling()
}

func (metadata *VersionMetadata) isDangling() bool {
	if metadata == nil || metadata.PackageType != containerPackageTypeConstant {
		return false
	}
	return metadata.Container.isDangling()
}

func (container *ContainerMetadata) isDangling() bool {
	if container == nil || container.Tags == nil {
		return false
	}
	return len(container.Tags) == 0
}

// ComputeDanglingIDs returns the identifiers of dangling versions in input order.
func ComputeDanglingIDs(versions []PackageVersion) []int64 {
	danglingIdentifiers := make([]int64, 0, len(versions))
	for _, version := range versions {
		if version.IsDangling() {
			danglingIdentifiers = append(danglingIdentifiers, version.ID)
		}
	}
	return danglingIdentifiers
}
