// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package kubernetes

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"

	"github.com/wardensync/wardensync/pkg/errors"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/mapper"
)

// ManagedByLabel marks secrets owned by wardensync. The engine only ever
// deletes secrets carrying this label.
const ManagedByLabel = "app.kubernetes.io/managed-by"

// DefaultManagedByValue is the default value for the managed-by label.
const DefaultManagedByValue = "wardensync"

//go:generate mockgen -destination=mocks/mock_secrets.go -package=mocks -source=secrets.go SecretsClient

// SecretRef identifies a managed secret in the cluster.
type SecretRef struct {
	Namespace string
	Name      string
	// SourceItemID is the vault item the secret was synced from, read from
	// the provenance annotation. Empty if the annotation is missing.
	SourceItemID string
}

// SecretsClient is the secret CRUD surface used by the reconciler.
type SecretsClient interface {
	// ListManagedSecrets lists secrets carrying the managed-by label.
	// An empty namespace lists across all namespaces.
	ListManagedSecrets(ctx context.Context, namespace string) ([]SecretRef, error)
	// CreateSecret creates the secret for a target, falling back to update
	// when the secret already exists.
	CreateSecret(ctx context.Context, target *mapper.Target) error
	// UpdateSecret updates the secret for a target, falling back to create
	// when the secret has been removed out-of-band.
	UpdateSecret(ctx context.Context, target *mapper.Target) error
	// DeleteSecret deletes a managed secret. It refuses to delete secrets
	// that do not carry the managed-by label.
	DeleteSecret(ctx context.Context, namespace, name string) error
	// SecretExists reports whether a secret exists.
	SecretExists(ctx context.Context, namespace, name string) (bool, error)
	// GetSecretData returns the decoded data of a secret.
	GetSecretData(ctx context.Context, namespace, name string) (map[string]string, error)
}

// Client implements SecretsClient against a Kubernetes clientset.
type Client struct {
	clientset kubernetes.Interface
	managedBy string
}

// NewSecretsClient creates a SecretsClient. managedBy is the value written to
// the managed-by label; empty selects DefaultManagedByValue.
func NewSecretsClient(clientset kubernetes.Interface, managedBy string) *Client {
	if managedBy == "" {
		managedBy = DefaultManagedByValue
	}
	return &Client{clientset: clientset, managedBy: managedBy}
}

var _ SecretsClient = (*Client)(nil)

// ListManagedSecrets implements SecretsClient.
func (c *Client) ListManagedSecrets(ctx context.Context, namespace string) ([]SecretRef, error) {
	selector := labels.Set{ManagedByLabel: c.managedBy}.AsSelector().String()
	list, err := c.clientset.CoreV1().Secrets(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, errors.NewTransientStoreError("listing managed secrets", err)
	}

	refs := make([]SecretRef, 0, len(list.Items))
	for i := range list.Items {
		s := &list.Items[i]
		refs = append(refs, SecretRef{
			Namespace:    s.Namespace,
			Name:         s.Name,
			SourceItemID: s.Annotations[mapper.AnnotationSourceItemID],
		})
	}
	return refs, nil
}

// CreateSecret implements SecretsClient.
func (c *Client) CreateSecret(ctx context.Context, target *mapper.Target) error {
	secret := c.buildSecret(target)
	_, err := c.clientset.CoreV1().Secrets(target.Namespace).Create(ctx, secret, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		// Cluster drift: someone created it between plan and apply.
		logger.Debugw("secret already exists, updating instead",
			"namespace", target.Namespace, "secret", target.SecretName)
		return c.UpdateSecret(ctx, target)
	}
	if err != nil {
		return errors.NewTransientStoreError(
			fmt.Sprintf("creating secret %s/%s", target.Namespace, target.SecretName), err)
	}
	return nil
}

// UpdateSecret implements SecretsClient.
func (c *Client) UpdateSecret(ctx context.Context, target *mapper.Target) error {
	secret := c.buildSecret(target)
	_, err := c.clientset.CoreV1().Secrets(target.Namespace).Update(ctx, secret, metav1.UpdateOptions{})
	if apierrors.IsNotFound(err) {
		// Cluster drift: the secret was removed out-of-band.
		logger.Debugw("secret disappeared, recreating",
			"namespace", target.Namespace, "secret", target.SecretName)
		_, err = c.clientset.CoreV1().Secrets(target.Namespace).Create(ctx, secret, metav1.CreateOptions{})
	}
	if err != nil {
		return errors.NewTransientStoreError(
			fmt.Sprintf("updating secret %s/%s", target.Namespace, target.SecretName), err)
	}
	return nil
}

// DeleteSecret implements SecretsClient.
func (c *Client) DeleteSecret(ctx context.Context, namespace, name string) error {
	secret, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		// Already gone; deletion is idempotent.
		return nil
	}
	if err != nil {
		return errors.NewTransientStoreError(
			fmt.Sprintf("fetching secret %s/%s before delete", namespace, name), err)
	}
	if secret.Labels[ManagedByLabel] != c.managedBy {
		return errors.NewNotManagedError(
			fmt.Sprintf("secret %s/%s is not managed by wardensync", namespace, name), nil)
	}

	err = c.clientset.CoreV1().Secrets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return errors.NewTransientStoreError(
			fmt.Sprintf("deleting secret %s/%s", namespace, name), err)
	}
	return nil
}

// SecretExists implements SecretsClient.
func (c *Client) SecretExists(ctx context.Context, namespace, name string) (bool, error) {
	_, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewTransientStoreError(
			fmt.Sprintf("fetching secret %s/%s", namespace, name), err)
	}
	return true, nil
}

// GetSecretData implements SecretsClient.
func (c *Client) GetSecretData(ctx context.Context, namespace, name string) (map[string]string, error) {
	secret, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, errors.NewTransientStoreError(
			fmt.Sprintf("fetching secret %s/%s", namespace, name), err)
	}

	data := make(map[string]string, len(secret.Data))
	for k, v := range secret.Data {
		data[k] = string(v)
	}
	return data, nil
}

func (c *Client) buildSecret(target *mapper.Target) *corev1.Secret {
	data := make(map[string][]byte, len(target.Data))
	for k, v := range target.Data {
		data[k] = []byte(v)
	}

	annotations := make(map[string]string, len(target.Annotations))
	for k, v := range target.Annotations {
		annotations[k] = v
	}

	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:        target.SecretName,
			Namespace:   target.Namespace,
			Labels:      map[string]string{ManagedByLabel: c.managedBy},
			Annotations: annotations,
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}
}
