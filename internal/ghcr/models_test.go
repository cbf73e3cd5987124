package ghcr_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghprune/internal/ghcr"
)

func TestPackageVersionIsDangling(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name     string
		payload  string
		expected bool
	}{
		{
			name:     "empty_container_tags",
			payload:  `{"id":1,"metadata":{"package_type":"container","container":{"tags":[]}}}`,
			expected: true,
		},
		{
			name:     "tagged_container",
			payload:  `{"id":2,"metadata":{"package_type":"container","container":{"tags":["v1"]}}}`,
			expected: false,
		},
		{
			name:     "null_metadata",
			payload:  `{"id":3,"metadata":null}`,
			expected: false,
		},
		{
			name:     "missing_metadata",
			payload:  `{"id":4}`,
			expected: false,
		},
		{
			name:     "missing_container",
			payload:  `{"id":5,"metadata":{"package_type":"container"}}`,
			expected: false,
		},
		{
			name:     "null_container",
			payload:  `{"id":6,"metadata":{"package_type":"container","container":null}}`,
			expected: false,
		},
		{
			name:     "docker_metadata_without_tags",
			payload:  `{"id":7,"metadata":{"package_type":"docker","docker":{"tag":[]}}}`,
			expected: false,
		},
		{
			name:     "null_tags_inside_container",
			payload:  `{"id":8,"metadata":{"package_type":"container","container":{"tags":null}}}`,
			expected: false,
		},
		{
			name:     "absent_tags_inside_container",
			payload:  `{"id":10,"metadata":{"package_type":"container","container":{}}}`,
			expected: false,
		},
		{
			name:     "non_container_package_type_with_empty_tags",
			payload:  `{"id":11,"metadata":{"package_type":"docker","container":{"tags":[]}}}`,
			expected: false,
		},
		{
			name:     "missing_package_type_with_empty_tags",
			payload:  `{"id":12,"metadata":{"container":{"tags":[]}}}`,
			expected: false,
		},
		{
			name:     "package_type_is_case_sensitive",
			payload:  `{"id":13,"metadata":{"package_type":"Container","container":{"tags":[]}}}`,
			expected: false,
		},
		{
			name:     "unknown_fields_ignored",
			payload:  `{"id":9,"extra":{"nested":true},"metadata":{"package_type":"container","container":{"tags":[],"digest":"sha256:abc"}}}`,
			expected: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			var version ghcr.PackageVersion
			require.NoError(subTest, json.Unmarshal([]byte(testCase.payload), &version))
			require.Equal(subTest, testCase.expected, version.IsDangling())
		})
	}
}

func TestComputeDanglingIDsKeepsAmbiguousVersions(testInstance *testing.T) {
	testInstance.Parallel()

	payload := `[
{"id":8,"metadata":{"package_type":"container","container":{"tags":null}}},
{"id":9,"metadata":{"package_type":"container","container":{}}},
{"id":10,"metadata":{"package_type":"container","container":{"tags":[]}}},
{"id":11,"metadata":{"package_type":"npm","container":{"tags":[]}}}
]`

	var versions []ghcr.PackageVersion
	require.NoError(testInstance, json.Unmarshal([]byte(payload), &versions))
	require.Equal(testInstance, []int64{10}, ghcr.ComputeDanglingIDs(versions))
}

func TestComputeDanglingIDs(testInstance *testing.T) {
	testInstance.Parallel()

	untagged := &ghcr.VersionMetadata{PackageType: "container", Container: &ghcr.ContainerMetadata{Tags: []string{}}}
	tagged := &ghcr.VersionMetadata{PackageType: "container", Container: &ghcr.ContainerMetadata{Tags: []string{"v1"}}}

	testCases := []struct {
		name     string
		versions []ghcr.PackageVersion
		expected []int64
	}{
		{
			name:     "empty_input",
			versions: nil,
			expected: []int64{},
		},
		{
			name:     "no_dangling_members",
			versions: []ghcr.PackageVersion{{ID: 1, Metadata: tagged}, {ID: 2}},
			expected: []int64{},
		},
		{
			name:     "nil_tags_are_not_dangling",
			versions: []ghcr.PackageVersion{{ID: 1, Metadata: &ghcr.VersionMetadata{PackageType: "container", Container: &ghcr.ContainerMetadata{}}}},
			expected: []int64{},
		},
		{
			name:     "first_of_two",
			versions: []ghcr.PackageVersion{{ID: 1, Metadata: untagged}, {ID: 2, Metadata: tagged}},
			expected: []int64{1},
		},
		{
			name:     "preserves_input_order",
			versions: []ghcr.PackageVersion{{ID: 30, Metadata: untagged}, {ID: 10, Metadata: tagged}, {ID: 20, Metadata: untagged}},
			expected: []int64{30, 20},
		},
		{
			name:     "keeps_duplicates",
			versions: []ghcr.PackageVersion{{ID: 7, Metadata: untagged}, {ID: 7, Metadata: untagged}},
			expected: []int64{7, 7},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			danglingIdentifiers := ghcr.ComputeDanglingIDs(testCase.versions)
			require.NotNil(subTest, danglingIdentifiers)
			require.Equal(subTest, testCase.expected, danglingIdentifiers)
		})
	}
}
