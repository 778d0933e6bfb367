package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/identity/internal/crypto/domain"
	cryptoService "github.com/allisson/identity/internal/crypto/service"
)

// Keyring returns the keyring loaded from the keys directory.
//
// Key files are read once at startup; rotations performed on disk are picked
// up on next start. When a KMS provider is configured the key bytes are
// unwrapped through it before use.
func (c *Container) Keyring() (*cryptoDomain.Keyring, error) {
	var err error
	c.keyringInit.Do(func() {
		c.keyring, err = c.initKeyring()
		if err != nil {
			c.initErrors["keyring"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyring"]; exists {
		return nil, storedErr
	}
	return c.keyring, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// FieldCipher returns the field cipher used to seal PII columns.
func (c *Container) FieldCipher() (cryptoService.FieldCipher, error) {
	var err error
	c.fieldCipherInit.Do(func() {
		c.fieldCipher, err = c.initFieldCipher()
		if err != nil {
			c.initErrors["fieldCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldCipher"]; exists {
		return nil, storedErr
	}
	return c.fieldCipher, nil
}

// BlindIndexer returns the blind index service used for keyed email hashing.
func (c *Container) BlindIndexer() (cryptoService.BlindIndexer, error) {
	var err error
	c.blindIndexerInit.Do(func() {
		c.blindIndexer, err = c.initBlindIndexer()
		if err != nil {
			c.initErrors["blindIndexer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["blindIndexer"]; exists {
		return nil, storedErr
	}
	return c.blindIndexer, nil
}

// KMSKeeper opens the configured KMS keeper for wrapping and unwrapping key
// files. Returns nil when no KMS provider is configured.
func (c *Container) KMSKeeper(ctx context.Context) (cryptoDomain.KMSKeeper, error) {
	if c.config.KMSProvider == "" {
		return nil, nil
	}

	keeper, err := cryptoService.NewKMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// initKeyring loads the keyring from the configured keys directory.
func (c *Container) initKeyring() (*cryptoDomain.Keyring, error) {
	ctx := context.Background()

	keeper, err := c.KMSKeeper(ctx)
	if err != nil {
		return nil, err
	}

	keyring, err := cryptoService.LoadKeyring(ctx, c.config.KeysDir, keeper)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyring from %s: %w", c.config.KeysDir, err)
	}
	return keyring, nil
}

// initFieldCipher creates the field cipher with the configured AEAD algorithm.
func (c *Container) initFieldCipher() (cryptoService.FieldCipher, error) {
	keyring, err := c.Keyring()
	if err != nil {
		return nil, fmt.Errorf("failed to get keyring for field cipher: %w", err)
	}

	fieldCipher, err := cryptoService.NewFieldCipher(
		keyring,
		c.AEADManager(),
		cryptoDomain.Algorithm(c.config.AEADAlgorithm),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create field cipher: %w", err)
	}
	return fieldCipher, nil
}

// initBlindIndexer creates the blind index service.
func (c *Container) initBlindIndexer() (cryptoService.BlindIndexer, error) {
	keyring, err := c.Keyring()
	if err != nil {
		return nil, fmt.Errorf("failed to get keyring for blind indexer: %w", err)
	}
	return cryptoService.NewBlindIndex(keyring), nil
}
