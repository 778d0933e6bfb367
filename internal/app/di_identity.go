package app

import (
	"fmt"
	"time"

	identityHTTP "github.com/allisson/identity/internal/identity/http"
	identityRepository "github.com/allisson/identity/internal/identity/repository"
	identityService "github.com/allisson/identity/internal/identity/service"
	identityUseCase "github.com/allisson/identity/internal/identity/usecase"
)

// csrfTokenTTL bounds how long a minted CSRF token stays accepted.
const csrfTokenTTL = 4 * time.Hour

// IdentityRepository returns the identity record repository instance.
func (c *Container) IdentityRepository() (identityUseCase.IdentityRepository, error) {
	var err error
	c.identityRepoInit.Do(func() {
		c.identityRepo, err = c.initIdentityRepository()
		if err != nil {
			c.initErrors["identityRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityRepo"]; exists {
		return nil, storedErr
	}
	return c.identityRepo, nil
}

// TokenRepository returns the verification token repository instance.
func (c *Container) TokenRepository() (identityUseCase.TokenRepository, error) {
	var err error
	c.tokenRepoInit.Do(func() {
		c.tokenRepo, err = c.initTokenRepository()
		if err != nil {
			c.initErrors["tokenRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenRepo"]; exists {
		return nil, storedErr
	}
	return c.tokenRepo, nil
}

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (identityUseCase.UserRepository, error) {
	var err error
	c.userRepoInit.Do(func() {
		c.userRepo, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// SubscriberRepository returns the newsletter subscriber repository instance.
func (c *Container) SubscriberRepository() (identityUseCase.SubscriberRepository, error) {
	var err error
	c.subscriberRepoInit.Do(func() {
		c.subscriberRepo, err = c.initSubscriberRepository()
		if err != nil {
			c.initErrors["subscriberRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subscriberRepo"]; exists {
		return nil, storedErr
	}
	return c.subscriberRepo, nil
}

// TokenIssuer returns the selector/validator token issuer.
func (c *Container) TokenIssuer() (identityService.TokenIssuer, error) {
	var err error
	c.tokenIssuerInit.Do(func() {
		blindIndexer, indexerErr := c.BlindIndexer()
		if indexerErr != nil {
			err = fmt.Errorf("failed to get blind indexer for token issuer: %w", indexerErr)
			c.initErrors["tokenIssuer"] = err
			return
		}
		c.tokenIssuer = identityService.NewTokenIssuer(blindIndexer)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenIssuer"]; exists {
		return nil, storedErr
	}
	return c.tokenIssuer, nil
}

// AccountUseCase returns the account use case instance.
func (c *Container) AccountUseCase() (identityUseCase.AccountUseCase, error) {
	var err error
	c.accountUseCaseInit.Do(func() {
		c.accountUseCase, err = c.initAccountUseCase()
		if err != nil {
			c.initErrors["accountUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accountUseCase"]; exists {
		return nil, storedErr
	}
	return c.accountUseCase, nil
}

// NewsletterUseCase returns the newsletter use case instance.
func (c *Container) NewsletterUseCase() (identityUseCase.NewsletterUseCase, error) {
	var err error
	c.newsletterUseCaseInit.Do(func() {
		c.newsletterUseCase, err = c.initNewsletterUseCase()
		if err != nil {
			c.initErrors["newsletterUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["newsletterUseCase"]; exists {
		return nil, storedErr
	}
	return c.newsletterUseCase, nil
}

// ConfirmUseCase returns the token confirmation use case instance.
func (c *Container) ConfirmUseCase() (identityUseCase.ConfirmUseCase, error) {
	var err error
	c.confirmUseCaseInit.Do(func() {
		c.confirmUseCase, err = c.initConfirmUseCase()
		if err != nil {
			c.initErrors["confirmUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["confirmUseCase"]; exists {
		return nil, storedErr
	}
	return c.confirmUseCase, nil
}

// LookupUseCase returns the blind-index email lookup use case instance.
func (c *Container) LookupUseCase() (identityUseCase.LookupUseCase, error) {
	var err error
	c.lookupUseCaseInit.Do(func() {
		c.lookupUseCase, err = c.initLookupUseCase()
		if err != nil {
			c.initErrors["lookupUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["lookupUseCase"]; exists {
		return nil, storedErr
	}
	return c.lookupUseCase, nil
}

// MaintenanceUseCase returns the housekeeping use case instance.
func (c *Container) MaintenanceUseCase() (identityUseCase.MaintenanceUseCase, error) {
	var err error
	c.maintenanceUseCaseInit.Do(func() {
		tokenRepo, repoErr := c.TokenRepository()
		if repoErr != nil {
			err = fmt.Errorf("failed to get token repository for maintenance use case: %w", repoErr)
			c.initErrors["maintenanceUseCase"] = err
			return
		}
		c.maintenanceUseCase = identityUseCase.NewMaintenanceUseCase(tokenRepo)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["maintenanceUseCase"]; exists {
		return nil, storedErr
	}
	return c.maintenanceUseCase, nil
}

// CSRFValidator returns the stateless CSRF validator for mutation endpoints.
func (c *Container) CSRFValidator() (identityHTTP.CSRFValidator, error) {
	var err error
	c.csrfValidatorInit.Do(func() {
		if c.config.CSRFKey == "" {
			err = fmt.Errorf("CSRF_KEY must be configured")
			c.initErrors["csrfValidator"] = err
			return
		}
		c.csrfValidator = identityHTTP.NewHMACCSRFValidator([]byte(c.config.CSRFKey), csrfTokenTTL)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["csrfValidator"]; exists {
		return nil, storedErr
	}
	return c.csrfValidator, nil
}

// IdentityHandler returns the identity HTTP handler with all its dependencies.
func (c *Container) IdentityHandler() (*identityHTTP.IdentityHandler, error) {
	var err error
	c.identityHandlerInit.Do(func() {
		c.identityHandler, err = c.initIdentityHandler()
		if err != nil {
			c.initErrors["identityHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityHandler"]; exists {
		return nil, storedErr
	}
	return c.identityHandler, nil
}

// initIdentityRepository creates the identity record repository instance.
func (c *Container) initIdentityRepository() (identityUseCase.IdentityRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for identity repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return identityRepository.NewMySQLIdentityRepository(db), nil
	case "postgres":
		return identityRepository.NewPostgreSQLIdentityRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTokenRepository creates the verification token repository instance.
func (c *Container) initTokenRepository() (identityUseCase.TokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return identityRepository.NewMySQLTokenRepository(db), nil
	case "postgres":
		return identityRepository.NewPostgreSQLTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initUserRepository creates the user repository instance.
func (c *Container) initUserRepository() (identityUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return identityRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return identityRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSubscriberRepository creates the newsletter subscriber repository instance.
func (c *Container) initSubscriberRepository() (identityUseCase.SubscriberRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for subscriber repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return identityRepository.NewMySQLSubscriberRepository(db), nil
	case "postgres":
		return identityRepository.NewPostgreSQLSubscriberRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// identityUseCaseConfig maps application configuration to use case configuration.
func (c *Container) identityUseCaseConfig() identityUseCase.Config {
	return identityUseCase.Config{
		EmailVerifyTokenTTL:   c.config.EmailVerifyTokenTTL,
		PasswordResetTokenTTL: c.config.PasswordResetTokenTTL,
		NewsletterTokenTTL:    c.config.NewsletterTokenTTL,
		BaseURL:               c.config.BaseURL,
	}
}

// initAccountUseCase creates the account use case with all its dependencies.
func (c *Container) initAccountUseCase() (identityUseCase.AccountUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for account use case: %w", err)
	}

	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for account use case: %w", err)
	}

	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for account use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for account use case: %w", err)
	}

	tokenIssuer, err := c.TokenIssuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get token issuer for account use case: %w", err)
	}

	blindIndexer, err := c.BlindIndexer()
	if err != nil {
		return nil, fmt.Errorf("failed to get blind indexer for account use case: %w", err)
	}

	fieldCipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for account use case: %w", err)
	}

	mailer, err := c.Mailer()
	if err != nil {
		return nil, fmt.Errorf("failed to get mailer for account use case: %w", err)
	}

	useCase, err := identityUseCase.NewAccountUseCase(
		c.identityUseCaseConfig(),
		txManager,
		identityRepo,
		tokenRepo,
		userRepo,
		tokenIssuer,
		blindIndexer,
		fieldCipher,
		mailer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for account use case: %w", err)
	}

	return identityUseCase.NewAccountUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initNewsletterUseCase creates the newsletter use case with all its dependencies.
func (c *Container) initNewsletterUseCase() (identityUseCase.NewsletterUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for newsletter use case: %w", err)
	}

	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for newsletter use case: %w", err)
	}

	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for newsletter use case: %w", err)
	}

	subscriberRepo, err := c.SubscriberRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber repository for newsletter use case: %w", err)
	}

	tokenIssuer, err := c.TokenIssuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get token issuer for newsletter use case: %w", err)
	}

	blindIndexer, err := c.BlindIndexer()
	if err != nil {
		return nil, fmt.Errorf("failed to get blind indexer for newsletter use case: %w", err)
	}

	fieldCipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for newsletter use case: %w", err)
	}

	mailer, err := c.Mailer()
	if err != nil {
		return nil, fmt.Errorf("failed to get mailer for newsletter use case: %w", err)
	}

	useCase := identityUseCase.NewNewsletterUseCase(
		c.identityUseCaseConfig(),
		txManager,
		identityRepo,
		tokenRepo,
		subscriberRepo,
		tokenIssuer,
		blindIndexer,
		fieldCipher,
		mailer,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for newsletter use case: %w", err)
	}

	return identityUseCase.NewNewsletterUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initConfirmUseCase creates the token confirmation use case with all its dependencies.
func (c *Container) initConfirmUseCase() (identityUseCase.ConfirmUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for confirm use case: %w", err)
	}

	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for confirm use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for confirm use case: %w", err)
	}

	subscriberRepo, err := c.SubscriberRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber repository for confirm use case: %w", err)
	}

	blindIndexer, err := c.BlindIndexer()
	if err != nil {
		return nil, fmt.Errorf("failed to get blind indexer for confirm use case: %w", err)
	}

	useCase, err := identityUseCase.NewConfirmUseCase(
		txManager,
		tokenRepo,
		userRepo,
		subscriberRepo,
		blindIndexer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create confirm use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for confirm use case: %w", err)
	}

	return identityUseCase.NewConfirmUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initLookupUseCase creates the lookup use case with all its dependencies.
func (c *Container) initLookupUseCase() (identityUseCase.LookupUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for lookup use case: %w", err)
	}

	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for lookup use case: %w", err)
	}

	blindIndexer, err := c.BlindIndexer()
	if err != nil {
		return nil, fmt.Errorf("failed to get blind indexer for lookup use case: %w", err)
	}

	fieldCipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for lookup use case: %w", err)
	}

	useCase := identityUseCase.NewLookupUseCase(
		txManager,
		identityRepo,
		blindIndexer,
		fieldCipher,
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for lookup use case: %w", err)
	}

	return identityUseCase.NewLookupUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initIdentityHandler creates the identity HTTP handler with all its dependencies.
func (c *Container) initIdentityHandler() (*identityHTTP.IdentityHandler, error) {
	accountUseCase, err := c.AccountUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account use case for identity handler: %w", err)
	}

	newsletterUseCase, err := c.NewsletterUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get newsletter use case for identity handler: %w", err)
	}

	confirmUseCase, err := c.ConfirmUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get confirm use case for identity handler: %w", err)
	}

	csrfValidator, err := c.CSRFValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to get csrf validator for identity handler: %w", err)
	}

	return identityHTTP.NewIdentityHandler(
		accountUseCase,
		newsletterUseCase,
		confirmUseCase,
		csrfValidator,
		c.Logger(),
	), nil
}
