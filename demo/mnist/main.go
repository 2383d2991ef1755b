package main

import (
	"flag"
	"log"
	"os"

	"github.com/unixpickle/anybatch"
	"github.com/unixpickle/anybatch/anycheck"
	"github.com/unixpickle/anybatch/anydata"
	"github.com/unixpickle/anybatch/anyff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/mnist"
)

func main() {
	var (
		numEpochs   int
		batchSize   int
		rate        float64
		anneal      float64
		hidden      int
		checkpoint  string
		dumpTimings bool
		logEvery    int
	)
	flag.IntVar(&numEpochs, "epochs", anybatch.DefaultNumEpochs, "last epoch to run")
	flag.IntVar(&batchSize, "batch", anybatch.DefaultBatchSize, "batch size")
	flag.Float64Var(&rate, "rate", 0.001, "learning rate")
	flag.Float64Var(&anneal, "anneal", 1, "learning rate decay per epoch")
	flag.IntVar(&hidden, "hidden", 300, "hidden layer size")
	flag.StringVar(&checkpoint, "checkpoint", "mnist.ckpt", "checkpoint path")
	flag.BoolVar(&dumpTimings, "timings", false, "dump timings after every epoch")
	flag.IntVar(&logEvery, "log-every", 100, "log every N batches (0 to disable)")
	flag.Parse()

	log.Println("Setting up...")
	creator := anyvec32.CurrentCreator()

	startEpoch := 1
	var network anynet.Net
	var adamState []byte
	if epoch, state, err := anycheck.Load(checkpoint, &network); err == nil {
		log.Printf("Resuming after epoch %d", epoch)
		startEpoch = epoch + 1
		adamState = state
	} else if os.IsNotExist(err) {
		network = anynet.Net{
			anynet.NewFC(creator, 28*28, hidden),
			anynet.Tanh,
			anynet.NewFC(creator, hidden, 10),
			anynet.LogSoftmax,
		}
	} else {
		log.Fatalf("load checkpoint: %v", err)
	}

	model := anyff.NewModel(creator, network, anynet.DotCost{}, 28*28, 10)
	adam := &anysgd.Adam{Vars: model.Params}
	if err := anycheck.RestoreTransformer(adam, adamState); err != nil {
		log.Fatal(err)
	}
	model.Transformer = adam

	learner := anybatch.NewNetLearner(model)
	model.Timings = learner.Timings
	learner.SetTrainingData(anydata.FromMNIST(mnist.LoadTrainingDataSet()))
	learner.SetTestingData(anydata.FromMNIST(mnist.LoadTestingDataSet()))
	learner.SetBatchSize(batchSize)
	learner.SetScheduleFrom(numEpochs, startEpoch)
	learner.SetDumpTimings(dumpTimings)
	if logEvery > 0 {
		learner.AddPostBatchAction(anybatch.LogBatches(nil, logEvery))
	}
	ckpt := &anycheck.Checkpointer{
		Path:        checkpoint,
		Net:         network,
		Transformer: adam,
		Logger:      log.New(os.Stderr, "", log.LstdFlags),
	}
	learner.AddPostEpochAction(ckpt.PostEpoch)

	log.Printf("Training epochs %d through %d...", startEpoch, numEpochs)
	events, err := learner.LearnAnneal(rate, anneal)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	if len(events) > 0 {
		last := events[len(events)-1]
		log.Printf("Final test accuracy: %.2f%%", last.TestAccuracy())
	}
}
