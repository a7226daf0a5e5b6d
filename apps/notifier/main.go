package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/services/email"
	"github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/services/scheduler"
	"github.com/trezcool/mahudhurio/services/sms"
	"github.com/trezcool/mahudhurio/storage/database/dummy"
	"github.com/trezcool/mahudhurio/storage/database/sqlx"
)

// notifier is the reminder worker: it consumes due expiring-session
// jobs from the durable queue and delivers them. Deployments on the
// in-process timer backend embed the engine in the web app instead and
// have no use for this binary.
func main() {
	conf, err := core.NewConfig()
	errAndDie(err)

	std := log.New(os.Stdout, fmt.Sprintf("%s : ", conf.AppName), log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = core.NewStdLogger(std)
	}

	if conf.Notification.Scheduler != "queue" {
		logger.Fatal("the notifier worker requires the queue scheduler backend; " +
			"the timer backend runs in-process with the embedding application")
	}

	// mail transport
	var mailTransport core.MailTransport
	if conf.SendgridApiKey != "" {
		mailTransport = emailsvc.NewSendgridTransport(conf)
	} else {
		mailTransport = emailsvc.NewConsoleTransport(conf, logger)
	}

	// SMS backends, in priority order; none configured degrades to the
	// simulated backend inside the provider
	var smsBackends []core.SMSBackend
	if t := conf.Twilio; t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != "" {
		smsBackends = append(smsBackends, smssvc.NewTwilioBackend(conf))
	}
	if at := conf.AfricasTalking; at.Username != "" && at.ApiKey != "" {
		smsBackends = append(smsBackends, smssvc.NewAfricasTalkingBackend(conf))
	}

	// session store
	var store attendance.SessionStore
	if conf.Database.Name != "" {
		db, err := sqlx.Connect(conf.Database.Engine, conf.Database.URL())
		errAndDie(err)
		defer db.Close()
		store = sqlxrepos.NewSessionStore(db, conf.Notification.SessionValidity)
	} else {
		db, err := dummydb.Open()
		errAndDie(err)
		store = dummydb.NewSessionStore(db)
	}

	provider := attendance.NewProvider(mailTransport, smsBackends, conf.Notification.SendTimeout, logger)
	notifier := attendance.NewNotifier(store, provider, attendance.NewComposer(conf.Notification.ReminderLeadTime), logger)

	worker := schedulersvc.NewWorker(notifier, conf, logger)
	logger.Info(fmt.Sprintf("notifier worker starting (redis: %s)", conf.Redis.Addr))
	if err := worker.Run(); err != nil {
		logger.Fatal(fmt.Sprintf("notifier worker stopped: %v", err), err)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
