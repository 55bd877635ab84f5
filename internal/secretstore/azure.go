package secretstore

import (
	"net/url"

	"github.com/hansjm10/jeeves-coordinator/internal/coreerr"
)

// AzureSpec is the three-field "azure" secret variant: an Azure DevOps
// organization URL, project name, and personal access token.
var AzureSpec = Spec{
	Name: "azure",
	Fields: []FieldSpec{
		{Name: "organization", Validate: validateOrganizationURL},
		{Name: "project", Validate: validateNoControlChars},
		{Name: "pat", Validate: validateNoControlChars},
	},
}

// AzureStore manages an Azure DevOps organization/project/PAT secret file.
type AzureStore struct {
	*Store
}

// NewAzureStore returns an AzureStore rooted at path.
func NewAzureStore(path string) *AzureStore {
	return &AzureStore{Store: New(path, AzureSpec)}
}

// AzureCredentials is the decoded form of an azure secret record.
type AzureCredentials struct {
	Organization string
	Project      string
	PAT          string
}

// WriteCredentials validates and persists the triple.
func (a *AzureStore) WriteCredentials(creds AzureCredentials) error {
	_, err := a.Write(map[string]string{
		"organization": creds.Organization,
		"project":      creds.Project,
		"pat":          creds.PAT,
	})
	return err
}

// ReadCredentials returns the stored triple. exists is false whenever the
// record is absent or fails validation.
func (a *AzureStore) ReadCredentials() (creds AzureCredentials, exists bool, err error) {
	record, exists, err := a.Read()
	if err != nil || !exists {
		return AzureCredentials{}, exists, err
	}

	org, ok1 := record["organization"].(string)
	project, ok2 := record["project"].(string)
	pat, ok3 := record["pat"].(string)
	if !ok1 || !ok2 || !ok3 {
		return AzureCredentials{}, false, nil
	}

	return AzureCredentials{Organization: org, Project: project, PAT: pat}, true, nil
}

// validateOrganizationURL requires an absolute URL with a scheme and host,
// matching Azure DevOps organization URLs such as
// https://dev.azure.com/my-org.
func validateOrganizationURL(value string) error {
	if err := validateNoControlChars(value); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return coreerr.Validation("SECRET_ORGANIZATION_INVALID", "organization", "[REDACTED]", "organization must be an absolute URL with scheme and host")
	}
	return nil
}
