package app

import (
	"fmt"

	mailerRepository "github.com/allisson/identity/internal/mailer/repository"
	mailerUseCase "github.com/allisson/identity/internal/mailer/usecase"
)

// MailMessageRepository returns the mail queue repository instance.
func (c *Container) MailMessageRepository() (mailerUseCase.MailMessageRepository, error) {
	var err error
	c.mailRepoInit.Do(func() {
		c.mailRepo, err = c.initMailMessageRepository()
		if err != nil {
			c.initErrors["mailRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["mailRepo"]; exists {
		return nil, storedErr
	}
	return c.mailRepo, nil
}

// Mailer returns the mail enqueue use case instance.
func (c *Container) Mailer() (mailerUseCase.Mailer, error) {
	var err error
	c.mailerInit.Do(func() {
		c.mailer, err = c.initMailer()
		if err != nil {
			c.initErrors["mailer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["mailer"]; exists {
		return nil, storedErr
	}
	return c.mailer, nil
}

// MailDispatcher returns the mail dispatch worker instance.
func (c *Container) MailDispatcher() (mailerUseCase.Dispatcher, error) {
	var err error
	c.mailDispatcherInit.Do(func() {
		c.mailDispatcher, err = c.initMailDispatcher()
		if err != nil {
			c.initErrors["mailDispatcher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["mailDispatcher"]; exists {
		return nil, storedErr
	}
	return c.mailDispatcher, nil
}

// initMailMessageRepository creates the mail queue repository instance.
func (c *Container) initMailMessageRepository() (mailerUseCase.MailMessageRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for mail repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return mailerRepository.NewMySQLMailMessageRepository(db), nil
	case "postgres":
		return mailerRepository.NewPostgreSQLMailMessageRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initMailer creates the mail enqueue use case with all its dependencies.
func (c *Container) initMailer() (mailerUseCase.Mailer, error) {
	mailRepo, err := c.MailMessageRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get mail repository for mailer: %w", err)
	}

	fieldCipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for mailer: %w", err)
	}

	return mailerUseCase.NewMailerUseCase(mailRepo, fieldCipher), nil
}

// initMailDispatcher creates the mail dispatch worker with all its dependencies.
func (c *Container) initMailDispatcher() (mailerUseCase.Dispatcher, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for mail dispatcher: %w", err)
	}

	mailRepo, err := c.MailMessageRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get mail repository for mail dispatcher: %w", err)
	}

	fieldCipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for mail dispatcher: %w", err)
	}

	dispatcherConfig := mailerUseCase.DispatcherConfig{
		Interval:   c.config.MailDispatchInterval,
		BatchSize:  c.config.MailDispatchBatchSize,
		MaxRetries: c.config.MailMaxRetries,
		PerSecond:  c.config.MailDispatchPerSec,
	}

	transport := mailerUseCase.NewLogTransport(c.Logger())

	return mailerUseCase.NewDispatcherUseCase(
		dispatcherConfig,
		txManager,
		mailRepo,
		fieldCipher,
		transport,
		c.Logger(),
	), nil
}
